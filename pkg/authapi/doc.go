// Package authapi implements session.Endpoints over the request pipeline.
//
// Every call is made on a plain httpclient.Client: unauthenticated calls
// opt out of the bearer token and token-bound calls (UserInfo, Logout) pass
// the token explicitly. A 401 from these endpoints is therefore returned to
// the session manager instead of triggering another refresh.
//
//	base, _ := httpclient.New("https://api.example.com/api")
//	mgr, _ := session.New(authapi.New(base))
package authapi
