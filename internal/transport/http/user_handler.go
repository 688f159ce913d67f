package http

import (
	"net/http"

	"quizzie-service/internal/app"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserHandler struct {
	users   *app.UserService
	cookies CookiePolicy
}

func NewUserHandler(users *app.UserService, cookies CookiePolicy) *UserHandler {
	return &UserHandler{users: users, cookies: cookies}
}

func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in app.SignupInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.users.Signup(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, user, "User created successfully")
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	user, token, err := h.users.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cookies.set(w, token)
	writeSuccess(w, http.StatusOK, user, "Welcome back "+user.Name)
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.clear(w)
	writeSuccess(w, http.StatusOK, "", "logout successfully")
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Profile(r.Context(), identityFrom(r.Context()).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, user, "User fetched successfully")
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in app.ProfileUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), identityFrom(r.Context()).ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, user, "User updated successfully")
}
