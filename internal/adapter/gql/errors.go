package gql

import (
	"context"
	"errors"

	"github.com/snake-eaterr/Snake-Way-Server/internal/logging"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

// Values of extensions.code.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeForbidden       = "FORBIDDEN"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

const internalMessage = "internal server error"

// resolverError is what resolvers return; graphql-go copies Extensions
// into the response error.
type resolverError struct {
	msg string
	ext map[string]interface{}
	err error
}

func (e *resolverError) Error() string                      { return e.msg }
func (e *resolverError) Extensions() map[string]interface{} { return e.ext }
func (e *resolverError) Unwrap() error                      { return e.err }

func codeFor(k usecase.Kind) string {
	switch k {
	case usecase.KindUnauthenticated:
		return CodeUnauthenticated
	case usecase.KindInvalidArgument:
		return CodeBadUserInput
	case usecase.KindPermissionDenied:
		return CodeForbidden
	default:
		return CodeInternal
	}
}

// toGraphQLError maps a workflow error onto the response taxonomy.
// Internal failures are logged and replaced by a generic message.
func toGraphQLError(ctx context.Context, field string, err error) error {
	var ue *usecase.Error
	if !errors.As(err, &ue) || ue.Kind == usecase.KindInternal {
		logging.FromCtx(ctx).Error("resolver failed", "field", field, "err", err)
		return &resolverError{msg: internalMessage, ext: map[string]interface{}{"code": CodeInternal}, err: err}
	}

	ext := map[string]interface{}{"code": codeFor(ue.Kind)}
	if ue.Args != nil {
		ext["invalidArgs"] = ue.Args
	}
	return &resolverError{msg: ue.Error(), ext: ext, err: err}
}
