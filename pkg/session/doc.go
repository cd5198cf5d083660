// Package session holds the client-side authentication session: the signed-in
// user, the access token and the optional refresh token.
//
// A Manager is the single writer of the session. It persists the state in a
// Store under the keys KeyUser, KeyToken and KeyRefreshToken and restores it
// with Initialize without touching the network. Server calls go through an
// Endpoints implementation (see package authapi).
//
// # Invariants
//
// The user and the access token are set and cleared together. A persisted
// token without a user is held as pending hydration: it is not authenticated
// until HydrateUser loads the profile. A persisted user that cannot be decoded
// clears the whole session.
//
// Logout always clears local state first. The server is told about it in the
// background and its answer never blocks or undoes the local logout. Results
// that arrive for a session that has since ended or been replaced are dropped,
// so a late profile or refresh response cannot resurrect a logged-out user.
//
// # Refresh
//
// RefreshAccessToken, HandleUnauthorized and Token share one in-flight
// refresh request. HandleUnauthorized is bound to the request pipeline:
//
//	mgr, _ := session.New(authapi.New(base), session.WithStore(store))
//	client := base.Authenticated(mgr)
//
// When several calls fail with 401 for the same token, one of them refreshes
// and the others re-send with the new token. Without a refresh token, or when
// the refresh fails, the session ends once and the navigator is sent to the
// login path with the interrupted path in the "redirect" query parameter.
//
// # Usage
//
//	if err := mgr.Initialize(ctx); err != nil {
//	    log.Printf("restore session: %v", err)
//	}
//	res := mgr.Login(ctx, session.LoginParams{Email: email, Password: pw})
//	if !res.Success {
//	    fmt.Println(res.Error)
//	}
//	defer mgr.Close()
package session
