package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductValidate(t *testing.T) {
	tests := []struct {
		name string
		p    Product
		want error
	}{
		{"ok", Product{Label: " atari ", Description: "console", Price: 5, Stock: 50}, nil},
		{"blank label", Product{Label: "   ", Description: "x"}, ErrLabelRequired},
		{"blank description", Product{Label: "x", Description: "\t"}, ErrDescriptionRequired},
		{"negative price", Product{Label: "x", Description: "y", Price: -1}, ErrNegativePrice},
		{"negative stock", Product{Label: "x", Description: "y", Stock: -1}, ErrNegativeStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestProductValidateTrims(t *testing.T) {
	p := Product{Label: "  How Linux Works ", Description: " what every superuser should know  "}
	require.NoError(t, p.Validate())
	assert.Equal(t, "How Linux Works", p.Label)
	assert.Equal(t, "what every superuser should know", p.Description)
}

func TestProductCloneDropsImage(t *testing.T) {
	rating := 4
	p := Product{
		Label:   "atari",
		Rating:  &rating,
		Image:   &Image{Data: []byte{1, 2}, ContentType: "image/png"},
		Reviews: []Review{{ID: "r1", Text: "nice"}},
	}
	c := p.Clone()
	assert.Nil(t, c.Image)

	c.Reviews[0].Text = "changed"
	*c.Rating = 1
	assert.Equal(t, "nice", p.Reviews[0].Text)
	assert.Equal(t, 4, *p.Rating)
}

func TestOrderValidate(t *testing.T) {
	assert.ErrorIs(t, (&Order{Quantity: 0, Address: "x"}).Validate(), ErrInvalidQuantity)
	assert.ErrorIs(t, (&Order{Quantity: -3, Address: "x"}).Validate(), ErrInvalidQuantity)
	assert.ErrorIs(t, (&Order{Quantity: 1, Address: "  "}).Validate(), ErrAddressRequired)
	assert.NoError(t, (&Order{Quantity: 1, Address: "Tatooine"}).Validate())
}

func TestOrderCanBeReceived(t *testing.T) {
	o := Order{}
	assert.ErrorIs(t, o.CanBeReceived(), ErrNotShipped)
	o.Shipped = true
	assert.NoError(t, o.CanBeReceived())
}

func TestUserRoles(t *testing.T) {
	u := User{}
	assert.False(t, u.HasRole(RoleFulfillment))
	assert.True(t, u.Grant(RoleFulfillment))
	assert.False(t, u.Grant(RoleFulfillment))
	assert.True(t, u.HasRole(RoleFulfillment))
	assert.Len(t, u.Roles, 1)
}

func TestUserValidation(t *testing.T) {
	assert.ErrorIs(t, ValidateUsername("ab"), ErrUsernameTooShort)
	assert.ErrorIs(t, ValidateUsername("  ab  "), ErrUsernameTooShort)
	assert.NoError(t, ValidateUsername("bob"))

	assert.ErrorIs(t, ValidatePassword("short"), ErrPasswordTooShort)
	assert.NoError(t, ValidatePassword("password1"))
	long := make([]byte, MaxPasswordLength+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, ValidatePassword(string(long)), ErrPasswordTooLong)
}
