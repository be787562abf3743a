package server

import (
	"net/http"
)

// MethodRouter maps HTTP methods to handlers
type MethodRouter map[string]http.HandlerFunc

// RouteByMethod dispatches on HTTP method, rejecting anything unmapped.
func RouteByMethod(w http.ResponseWriter, r *http.Request, routes MethodRouter) {
	handler, ok := routes[r.Method]
	if !ok {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	handler(w, r)
}

// RouteResourceCollection handles the list + create pattern
// GET -> list, POST -> create
func RouteResourceCollection(w http.ResponseWriter, r *http.Request, list, create http.HandlerFunc) {
	RouteByMethod(w, r, MethodRouter{
		"GET":  list,
		"POST": create,
	})
}

// RouteResourceItem handles the get + update + delete pattern
// GET -> get, PUT -> update, DELETE -> delete
func RouteResourceItem(w http.ResponseWriter, r *http.Request, get, update, delete http.HandlerFunc) {
	RouteByMethod(w, r, MethodRouter{
		"GET":    get,
		"PUT":    update,
		"DELETE": delete,
	})
}
