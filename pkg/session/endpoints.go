package session

import "context"

// Endpoints is the remote authentication API the manager drives. Errors
// returned here are expected to be *apierror.Error values; their Message is
// shown to the user.
type Endpoints interface {
	Login(ctx context.Context, p LoginParams) (*LoginResponse, error)
	Register(ctx context.Context, p RegisterParams) error
	ResetPassword(ctx context.Context, p ResetPasswordParams) error
	SendVerificationCode(ctx context.Context, p SendCodeParams) error
	// RefreshToken exchanges a refresh token for a new access token.
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	// UserInfo loads the profile owned by accessToken.
	UserInfo(ctx context.Context, accessToken string) (*User, error)
	// Logout tells the server accessToken is no longer used.
	Logout(ctx context.Context, accessToken string) error
	VerifyInviteCode(ctx context.Context, code string) (*InviteStatus, error)
	CheckEmailExists(ctx context.Context, email string) (*EmailStatus, error)
}

type LoginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User         *User  `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type RegisterParams struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	InviteCode       string `json:"inviteCode"`
	VerificationCode string `json:"verificationCode"`
}

type ResetPasswordParams struct {
	Email            string `json:"email"`
	NewPassword      string `json:"newPassword"`
	VerificationCode string `json:"verificationCode"`
}

// CodePurpose selects the flow a verification code is sent for.
type CodePurpose string

const (
	PurposeRegister CodePurpose = "register"
	PurposeReset    CodePurpose = "reset"
	PurposeLogin    CodePurpose = "login"
)

type SendCodeParams struct {
	Email   string      `json:"email"`
	Purpose CodePurpose `json:"type"`
}

// TokenPair is the result of a refresh. RefreshToken is empty unless the
// server rotated it.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type InviteStatus struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

type EmailStatus struct {
	Exists bool `json:"exists"`
}
