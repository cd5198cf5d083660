// Package guard decides whether a view transition may proceed based on the
// session state and per-route protection flags.
//
// A Routes table lists destinations in match order. Patterns are absolute
// paths whose segments may be ":name" parameters, and whose last segment may
// be "*" to match the rest of the path. A route may require authentication
// or be guest-only, never both. Paths that match no route resolve to the
// not-found route, which is always allowed.
//
// Decide returns exactly one of:
//
//   - Redirect to the login path, with the original destination as the
//     return path, when the route requires authentication and the session
//     is not authenticated;
//   - Redirect to the home path when the route is guest-only and the session
//     is authenticated;
//   - Allow otherwise.
//
// A session that only holds a persisted token is hydrated before the
// decision. The guard keeps no state of its own.
//
//	routes := guard.MustRoutes("/404",
//	    guard.Route{Path: "/", Name: "home"},
//	    guard.Route{Path: "/profile", Name: "profile", RequiresAuth: true},
//	    guard.Route{Path: "/login", Name: "login", GuestOnly: true},
//	)
//	g := guard.New(routes, mgr)
//	d := g.Decide(ctx, "/profile?tab=posts")
//	// d.URL() == "/login?redirect=%2Fprofile%3Ftab%3Dposts"
package guard
