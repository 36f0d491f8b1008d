package rest

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/bwise1/comment_service/internal/store"
	"github.com/bwise1/comment_service/util"
	"github.com/bwise1/comment_service/util/tracing"
	"github.com/bwise1/comment_service/util/values"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Resource implements list, get, create, update and delete over a Store for
// one entity type T. C is the create request body and U the update body.
// Each handler makes exactly one store call.
type Resource[T any, C any, U any] struct {
	// Name is used in client-facing messages, e.g. "Comment not found".
	Name   string
	Store  store.Store[T]
	Logger *zap.Logger

	// Build turns a validated create request into a new record.
	Build func(C) T
	// Changes returns the mutable fields carried by an update request.
	Changes func(U) store.Fields

	// ScopeField is the filter field accepted as a query parameter on List
	// and as a path parameter on ListScoped.
	ScopeField string
	// ScopePrefix is the path segment ListScoped is mounted under, giving
	// /{ScopePrefix}/{ScopeField}.
	ScopePrefix string
	// Expandable lists reference fields that may be expanded via ?expand=.
	// ListScoped expands the first one.
	Expandable []string
}

func (res *Resource[T, C, U]) Routes() chi.Router {
	mux := chi.NewRouter()

	mux.Method(http.MethodGet, "/", Handler(res.List))
	mux.Method(http.MethodPost, "/", Handler(res.Create))
	if res.ScopeField != "" && res.ScopePrefix != "" {
		mux.Method(http.MethodGet, fmt.Sprintf("/%s/{%s}", res.ScopePrefix, res.ScopeField), Handler(res.ListScoped))
	}
	mux.Method(http.MethodGet, "/{id}", Handler(res.Get))
	mux.Method(http.MethodPut, "/{id}", Handler(res.Update))
	mux.Method(http.MethodDelete, "/{id}", Handler(res.Delete))

	return mux
}

func (res *Resource[T, C, U]) List(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracing.FromContext(r.Context(), values.ContextTracingKey)

	filter := store.Filter{}
	if res.ScopeField != "" {
		if scope := r.URL.Query().Get(res.ScopeField); scope != "" {
			filter[res.ScopeField] = scope
		}
	}

	expand, resp := res.expansion(r, &tc)
	if resp != nil {
		return resp
	}

	var (
		records []T
		err     error
	)
	if expand != "" {
		records, err = res.Store.FindWithExpansion(r.Context(), filter, expand)
	} else {
		records, err = res.Store.Find(r.Context(), filter)
	}
	if err != nil {
		return res.storeFailure(err, "list", &tc)
	}

	return res.list(records)
}

func (res *Resource[T, C, U]) ListScoped(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracing.FromContext(r.Context(), values.ContextTracingKey)

	filter := store.Filter{res.ScopeField: chi.URLParam(r, res.ScopeField)}

	var (
		records []T
		err     error
	)
	if len(res.Expandable) > 0 {
		records, err = res.Store.FindWithExpansion(r.Context(), filter, res.Expandable[0])
	} else {
		records, err = res.Store.Find(r.Context(), filter)
	}
	if err != nil {
		return res.storeFailure(err, "list scoped", &tc)
	}

	return res.list(records)
}

func (res *Resource[T, C, U]) Get(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracing.FromContext(r.Context(), values.ContextTracingKey)
	id := chi.URLParam(r, "id")

	expand, resp := res.expansion(r, &tc)
	if resp != nil {
		return resp
	}

	var (
		record T
		err    error
	)
	if expand != "" {
		var records []T
		records, err = res.Store.FindWithExpansion(r.Context(), store.Filter{"id": id}, expand)
		if err == nil && len(records) == 0 {
			err = store.ErrNotFound
		}
		if err == nil {
			record = records[0]
		}
	} else {
		record, err = res.Store.FindByID(r.Context(), id)
	}
	if err != nil {
		return res.storeFailure(err, "get", &tc)
	}

	return &ServerResponse{
		Message:    res.Name + " retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       record,
	}
}

func (res *Resource[T, C, U]) Create(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracing.FromContext(r.Context(), values.ContextTracingKey)

	var req C
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return decodeFailure(decodeErr, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, util.ValidationMessage(err), values.BadRequestBody, &tc)
	}

	created, err := res.Store.Insert(r.Context(), res.Build(req))
	if err != nil {
		return res.storeFailure(err, "create", &tc)
	}

	return &ServerResponse{
		Message:    res.Name + " created successfully",
		Status:     values.Created,
		StatusCode: util.StatusCode(values.Created),
		Data:       created,
	}
}

func (res *Resource[T, C, U]) Update(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracing.FromContext(r.Context(), values.ContextTracingKey)
	id := chi.URLParam(r, "id")

	var req U
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return decodeFailure(decodeErr, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, util.ValidationMessage(err), values.BadRequestBody, &tc)
	}

	updated, err := res.Store.UpdateByID(r.Context(), id, res.Changes(req))
	if err != nil {
		return res.storeFailure(err, "update", &tc)
	}

	return &ServerResponse{
		Message:    res.Name + " updated successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       updated,
	}
}

func (res *Resource[T, C, U]) Delete(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracing.FromContext(r.Context(), values.ContextTracingKey)

	if _, err := res.Store.DeleteByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		return res.storeFailure(err, "delete", &tc)
	}

	return &ServerResponse{
		Message:    res.Name + " deleted successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
	}
}

// expansion reads ?expand= and rejects fields not listed in Expandable.
func (res *Resource[T, C, U]) expansion(r *http.Request, tc *tracing.Context) (string, *ServerResponse) {
	expand := r.URL.Query().Get("expand")
	if expand == "" {
		return "", nil
	}
	if !slices.Contains(res.Expandable, expand) {
		err := fmt.Errorf("cannot expand field %q", expand)
		return "", respondWithError(err, err.Error(), values.BadRequestBody, tc)
	}
	return expand, nil
}

func (res *Resource[T, C, U]) list(records []T) *ServerResponse {
	if records == nil {
		records = []T{}
	}
	return &ServerResponse{
		Message:    res.Name + "s retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       records,
	}
}

func decodeFailure(err error, tc *tracing.Context) *ServerResponse {
	if util.IsBodyTooLarge(err) {
		return respondWithError(err, "request body too large", values.TooLarge, tc)
	}
	return respondWithError(err, "invalid request body", values.BadRequestBody, tc)
}

func (res *Resource[T, C, U]) storeFailure(err error, op string, tc *tracing.Context) *ServerResponse {
	if errors.Is(err, store.ErrNotFound) {
		return respondWithError(err, res.Name+" not found", values.NotFound, tc)
	}

	res.Logger.Error("store operation failed",
		zap.String("resource", res.Name),
		zap.String("op", op),
		zap.String("request_id", tc.RequestID),
		zap.Error(err),
	)
	return respondWithError(err, err.Error(), values.Error, tc)
}
