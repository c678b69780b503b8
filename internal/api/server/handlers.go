package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err)
		return
	}
	res, err := s.b.Login(r.Context(), req.Username, req.Password)
	respond(w, http.StatusOK, res, err, "user")
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token, _ := r.Context().Value(tokenKey).(string)
	if err := s.b.Logout(r.Context(), token); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

// Contacts

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	q := api.ContactQuery{
		Search: r.URL.Query().Get("search"),
		Skip:   queryInt(r, "skip"),
		Take:   queryInt(r, "take"),
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, ok := api.ParseContactType(raw)
		if !ok {
			fail(w, api.Invalid("unknown contact type "+raw))
			return
		}
		q.Type = &t
	}
	list, err := s.b.ListContacts(r.Context(), q)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getContact(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	c, err := s.b.GetContact(r.Context(), id)
	respond(w, http.StatusOK, c, err, "contact")
}

func (s *Server) createContact(w http.ResponseWriter, r *http.Request) {
	var req api.ContactRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err)
		return
	}
	c, err := s.b.CreateContact(r.Context(), req)
	respond(w, http.StatusCreated, c, err, "contact")
}

func (s *Server) updateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var req api.ContactRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err)
		return
	}
	c, err := s.b.UpdateContact(r.Context(), id, req)
	respond(w, http.StatusOK, c, err, "contact")
}

func (s *Server) deleteContact(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.b.DeleteContact)
}

func (s *Server) deleteByID(w http.ResponseWriter, r *http.Request, del func(context.Context, uuid.UUID) error) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	if err := del(r.Context(), id); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Accounts

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	bank, err := queryUUID(r, "bankContactId")
	if err != nil {
		fail(w, err)
		return
	}
	list, err := s.b.ListAccounts(r.Context(), bank)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	a, err := s.b.GetAccount(r.Context(), id)
	respond(w, http.StatusOK, a, err, "account")
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req api.AccountRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err)
		return
	}
	a, err := s.b.CreateAccount(r.Context(), req)
	respond(w, http.StatusCreated, a, err, "account")
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var req api.AccountRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err)
		return
	}
	a, err := s.b.UpdateAccount(r.Context(), id, req)
	respond(w, http.StatusOK, a, err, "account")
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.b.DeleteAccount)
}

func (s *Server) importPostings(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		fail(w, api.Invalid("expected a multipart upload"))
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		fail(w, api.Invalid("file is required"))
		return
	}
	defer f.Close()
	res, err := s.b.ImportPostings(r.Context(), id, f, hdr.Filename)
	respond(w, http.StatusOK, res, err, "account")
}

// Savings plans

func (s *Server) listSavingsPlans(w http.ResponseWriter, r *http.Request) {
	list, err := s.b.ListSavingsPlans(r.Context(), queryBool(r, "onlyActive"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getSavingsPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	p, err := s.b.GetSavingsPlan(r.Context(), id)
	respond(w, http.StatusOK, p, err, "savings plan")
}

func (s *Server) createSavingsPlan(w http.ResponseWriter, r *http.Request) {
	var req api.SavingsPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err)
		return
	}
	p, err := s.b.CreateSavingsPlan(r.Context(), req)
	respond(w, http.StatusCreated, p, err, "savings plan")
}

func (s *Server) updateSavingsPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var req api.SavingsPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err)
		return
	}
	p, err := s.b.UpdateSavingsPlan(r.Context(), id, req)
	respond(w, http.StatusOK, p, err, "savings plan")
}

func (s *Server) deleteSavingsPlan(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.b.DeleteSavingsPlan)
}

// Securities

func (s *Server) listSecurities(w http.ResponseWriter, r *http.Request) {
	list, err := s.b.ListSecurities(r.Context(), queryBool(r, "onlyActive"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getSecurity(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	sec, err := s.b.GetSecurity(r.Context(), id)
	respond(w, http.StatusOK, sec, err, "security")
}

func (s *Server) createSecurity(w http.ResponseWriter, r *http.Request) {
	var req api.SecurityRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err)
		return
	}
	sec, err := s.b.CreateSecurity(r.Context(), req)
	respond(w, http.StatusCreated, sec, err, "security")
}

func (s *Server) updateSecurity(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var req api.SecurityRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err)
		return
	}
	sec, err := s.b.UpdateSecurity(r.Context(), id, req)
	respond(w, http.StatusOK, sec, err, "security")
}

func (s *Server) deleteSecurity(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.b.DeleteSecurity)
}

// Postings

func (s *Server) listPostings(w http.ResponseWriter, r *http.Request) {
	q := api.PostingQuery{
		Search: r.URL.Query().Get("search"),
		Skip:   queryInt(r, "skip"),
		Take:   queryInt(r, "take"),
	}
	var err error
	if q.AccountID, err = queryUUID(r, "accountId"); err != nil {
		fail(w, err)
		return
	}
	if q.ContactID, err = queryUUID(r, "contactId"); err != nil {
		fail(w, err)
		return
	}
	if q.SavingsPlanID, err = queryUUID(r, "savingsPlanId"); err != nil {
		fail(w, err)
		return
	}
	if q.SecurityID, err = queryUUID(r, "securityId"); err != nil {
		fail(w, err)
		return
	}
	if q.From, err = queryDate(r, "from"); err != nil {
		fail(w, err)
		return
	}
	if q.To, err = queryDate(r, "to"); err != nil {
		fail(w, err)
		return
	}
	list, err := s.b.ListPostings(r.Context(), q)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Attachments

func (s *Server) listAttachments(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	kind := api.AttachmentEntityKind(chi.URLParam(r, "kind"))
	list, err := s.b.ListAttachments(r.Context(), kind, id)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	kind := api.AttachmentEntityKind(chi.URLParam(r, "kind"))
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		fail(w, api.NewError(http.StatusBadRequest, api.CodeUploadRejected, "expected a multipart upload"))
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		fail(w, api.NewError(http.StatusBadRequest, api.CodeUploadRejected, "file is required"))
		return
	}
	defer f.Close()
	a, err := s.b.UploadAttachment(r.Context(), kind, id, f, hdr.Filename,
		hdr.Header.Get("Content-Type"), r.FormValue("role"))
	respond(w, http.StatusCreated, a, err, "attachment")
}

func (s *Server) downloadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	a, data, err := s.b.AttachmentData(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	if a == nil {
		fail(w, api.NotFound("attachment"))
		return
	}
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Users

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.b.ListUsers(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	u, err := s.b.GetUser(r.Context(), id)
	respond(w, http.StatusOK, u, err, "user")
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req api.UserRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err)
		return
	}
	u, err := s.b.CreateUser(r.Context(), req)
	respond(w, http.StatusCreated, u, err, "user")
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var req api.UserRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, err)
		return
	}
	u, err := s.b.UpdateUser(r.Context(), id, req)
	respond(w, http.StatusOK, u, err, "user")
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.b.DeleteUser(r.Context(), currentUser(r).ID, id); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Backups

func (s *Server) listBackups(w http.ResponseWriter, r *http.Request) {
	list, err := s.b.ListBackups(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createBackup(w http.ResponseWriter, r *http.Request) {
	bk, err := s.b.CreateBackup(r.Context())
	respond(w, http.StatusCreated, bk, err, "backup")
}
