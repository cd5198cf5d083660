// Package authkit composes a client-side authentication session, the request
// pipeline API calls go through and the navigation guard that gates views.
//
// The three parts share one session.Manager:
//
//   - Kit.API attaches the manager's access token to every call. A 401 is
//     handed to the manager, which refreshes the token once for all
//     concurrent callers or ends the session and redirects to login.
//   - Kit.Guard allows a transition, or redirects to login with the original
//     destination preserved, or sends a signed-in user away from guest-only
//     views.
//   - Kit.Session persists the session in the configured store and restores
//     it when the kit is created.
//
// # Usage
//
//	cfg, err := authkit.LoadConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	kit, err := authkit.New(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer kit.Close()
//
//	res := kit.Session.Login(ctx, session.LoginParams{Email: email, Password: pw})
//	if !res.Success {
//	    fmt.Println(res.Error)
//	}
//
//	var posts []Post
//	err = kit.API.Get(ctx, "/posts", &posts, httpclient.WithRetry(3))
//
//	d := kit.Navigate(ctx, "/profile")
//
// # Configuration
//
// Config is read from AUTHKIT_* environment variables (and a .env file when
// present) by LoadConfig. The session store is selected with AUTHKIT_STORE:
// memory, file, redis or sqlite.
package authkit
