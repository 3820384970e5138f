package errorbank

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Kind classifies an AppError; transports derive their status codes from it.
type Kind string

const (
	KindBadRequest          Kind = "bad_request"
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
	KindConflict            Kind = "conflict"
	KindNotFound            Kind = "not_found"
	KindUnprocessableEntity Kind = "unprocessable_entity"
	KindInternal            Kind = "internal"
)

type codePair struct {
	http int
	grpc codes.Code
}

var kindCodes = map[Kind]codePair{
	KindBadRequest:          {http.StatusBadRequest, codes.InvalidArgument},
	KindUnauthorized:        {http.StatusUnauthorized, codes.Unauthenticated},
	KindForbidden:           {http.StatusForbidden, codes.PermissionDenied},
	KindConflict:            {http.StatusConflict, codes.AlreadyExists},
	KindNotFound:            {http.StatusNotFound, codes.NotFound},
	KindUnprocessableEntity: {http.StatusUnprocessableEntity, codes.FailedPrecondition},
	KindInternal:            {http.StatusInternalServerError, codes.Internal},
}

func (k Kind) codes() codePair {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return kindCodes[KindInternal]
}

// HTTPStatus returns the HTTP status for k; unknown kinds map to 500.
func (k Kind) HTTPStatus() int { return k.codes().http }

// GRPCCode returns the gRPC code for k; unknown kinds map to Internal.
func (k Kind) GRPCCode() codes.Code { return k.codes().grpc }
