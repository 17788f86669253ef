package port

import (
	"context"
	"net/http"

	"github.com/dontpanicw/ClinicMedia/internal/domain"
)

type SessionManager interface {
	Authenticate(r *http.Request) (domain.Session, error)
	Login(ctx context.Context, w http.ResponseWriter, username, password string) (domain.Session, error)
	Logout(w http.ResponseWriter, session domain.Session)
}
