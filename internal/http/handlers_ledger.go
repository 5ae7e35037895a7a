package http

import (
	"context"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// resource wires one ledger collection to its CRUD routes.
type resource[T any] struct {
	list   func(ctx context.Context, ownerID string, q store.Query) ([]T, error)
	get    func(ctx context.Context, ownerID, id string) (T, error)
	create func(ctx context.Context, v T) (T, error)
	update func(ctx context.Context, v T) (T, error)
	remove func(ctx context.Context, ownerID, id string) error
	// bind stamps the owner and path id onto a decoded body and sanitizes it.
	bind func(v *T, ownerID, id string)
}

func (res resource[T]) mount(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("GET "+prefix, res.handleList)
	mux.HandleFunc("POST "+prefix, res.handleCreate)
	mux.HandleFunc("GET "+prefix+"/{id}", res.handleGet)
	mux.HandleFunc("PUT "+prefix+"/{id}", res.handleUpdate)
	mux.HandleFunc("DELETE "+prefix+"/{id}", res.handleDelete)
}

func (res resource[T]) handleList(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := parseListQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := res.list(r.Context(), owner, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (res resource[T]) handleGet(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := res.get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (res resource[T]) handleCreate(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var v T
	if err := decodeJSON(w, r, &v); err != nil {
		writeError(w, r, err)
		return
	}
	res.bind(&v, owner, "")

	created, err := res.create(r.Context(), v)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (res resource[T]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var v T
	if err := decodeJSON(w, r, &v); err != nil {
		writeError(w, r, err)
		return
	}
	res.bind(&v, owner, r.PathValue("id"))

	updated, err := res.update(r.Context(), v)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (res resource[T]) handleDelete(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := res.remove(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) categories() resource[core.Category] {
	return resource[core.Category]{
		list:   s.ledger.ListCategories,
		get:    s.ledger.GetCategory,
		create: s.ledger.CreateCategory,
		update: s.ledger.UpdateCategory,
		remove: s.ledger.DeleteCategory,
		bind: func(c *core.Category, ownerID, id string) {
			c.OwnerID, c.ID = ownerID, id
			sanitizeCategory(c)
		},
	}
}

func (s *Server) income() resource[core.Income] {
	return resource[core.Income]{
		list:   s.ledger.ListIncome,
		get:    s.ledger.GetIncome,
		create: s.ledger.CreateIncome,
		update: s.ledger.UpdateIncome,
		remove: s.ledger.DeleteIncome,
		bind: func(in *core.Income, ownerID, id string) {
			in.OwnerID, in.ID = ownerID, id
			sanitizeTransaction(&in.Transaction)
		},
	}
}

func (s *Server) expenses() resource[core.Expense] {
	return resource[core.Expense]{
		list:   s.ledger.ListExpenses,
		get:    s.ledger.GetExpense,
		create: s.ledger.CreateExpense,
		update: s.ledger.UpdateExpense,
		remove: s.ledger.DeleteExpense,
		bind: func(e *core.Expense, ownerID, id string) {
			e.OwnerID, e.ID = ownerID, id
			sanitizeTransaction(&e.Transaction)
		},
	}
}
