package handlers

import "net/http"

// DefaultActorName is used when a request carries no resolved identity.
const DefaultActorName = "web_user"

// Actor identifies the resolved requester. Identity resolution happens
// upstream of this service; handlers only consume the resolved name and role.
type Actor struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == "admin"
}

// ActorFromRequest reads the resolved actor from the request. The name comes
// from the "user" form or query value, the role from the X-Actor-Role header.
func ActorFromRequest(r *http.Request) Actor {
	name := r.FormValue("user")
	if name == "" {
		name = DefaultActorName
	}

	role := r.Header.Get("X-Actor-Role")
	if role == "" {
		role = "user"
	}

	return Actor{Name: name, Role: role}
}
