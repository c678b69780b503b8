package pages

import (
	"context"

	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/localization"
	"github.com/jask/finmgr/internal/records"
	"github.com/jask/finmgr/internal/ribbon"
	"github.com/jask/finmgr/internal/viewmodel"
)

// UsersList is the admin view of all users.
type UsersList struct {
	*viewmodel.List[api.User]
}

func NewUsersList(svc viewmodel.Services) *UsersList {
	l := &UsersList{}
	l.List = viewmodel.NewList[api.User](svc, l)
	return l
}

func (l *UsersList) Initialize(ctx context.Context) error {
	if !requireAdmin(ctx, l.Core()) {
		return nil
	}
	return l.List.Initialize(ctx)
}

func (l *UsersList) LoadPage(ctx context.Context, reset bool) error {
	items, err := l.API().ListUsers(ctx)
	if err != nil {
		return err
	}
	if l.Search != "" {
		filtered := items[:0]
		for _, u := range items {
			if containsFold(u.Username, l.Search) {
				filtered = append(filtered, u)
			}
		}
		items = filtered
	}
	skip, take := l.PageOffset(reset), l.PageSize()
	l.AppendPage(window(items, skip, take), take)
	return nil
}

func (l *UsersList) BuildRecords(items []api.User) ([]records.ListColumn, []records.ListRecord) {
	cols := []records.ListColumn{
		{Key: "Username", Title: l.T("List_Username")},
		{Key: "Admin", Title: l.T("List_Admin"), Width: 6, Align: records.AlignCenter},
		{Key: "Language", Title: l.T("List_Language"), Width: 8},
		{Key: "Created", Title: l.T("List_Created"), Width: 10},
	}
	recs := make([]records.ListRecord, 0, len(items))
	for _, u := range items {
		admin := ""
		if u.IsAdmin {
			admin = "✓"
		}
		recs = append(recs, records.ListRecord{
			Cells: []records.ListCell{
				records.TextCell(u.Username),
				records.TextCell(admin),
				records.MutedCell(localization.Text(l.Localizer(), "EnumType_"+EnumUserLanguage+"_"+u.PreferredLanguage, u.PreferredLanguage)),
				records.MutedCell(u.CreatedAt.Format(records.DateLayout)),
			},
			Item: u,
		})
	}
	return cols, recs
}

func (l *UsersList) Ribbon(loc localization.Localizer) []ribbon.Register {
	return []ribbon.Register{listRibbon(loc, l, KindUsers, l.Search != "")}
}

func (l *UsersList) Open(index int) {
	if index >= 0 && index < len(l.Items) {
		open(l.Core(), CardURI(KindUsers, l.Items[index].ID, nil))
	}
}

// UserCard edits one user. The password field is write-only: it always renders
// empty and an empty value keeps the stored password.
type UserCard struct {
	*viewmodel.Card[api.User]
}

func NewUserCard(svc viewmodel.Services) *UserCard {
	c := &UserCard{}
	c.Card = viewmodel.NewCard[api.User](svc, c)
	return c
}

func (c *UserCard) Initialize(ctx context.Context, id uuid.UUID) bool {
	if !requireAdmin(ctx, c.Core()) {
		return false
	}
	return c.Card.Initialize(ctx, id)
}

func (c *UserCard) LoadCard(ctx context.Context, id uuid.UUID) (*api.User, error) {
	if id == uuid.Nil {
		req := api.NewUserRequest()
		return &api.User{IsAdmin: req.IsAdmin, PreferredLanguage: req.PreferredLanguage}, nil
	}
	return c.API().GetUser(ctx, id)
}

func (c *UserCard) BuildCard(u *api.User) *records.CardRecord {
	password := textField(LabelPassword, "")
	if !c.IsNew() {
		password.Hint = c.T("Hint_PasswordUnchanged")
	}
	return &records.CardRecord{
		Item: u,
		Fields: []*records.CardField{
			textField(LabelUsername, u.Username),
			password,
			boolField(LabelAdmin, u.IsAdmin),
			enumField(LabelLanguage, EnumUserLanguage, u.PreferredLanguage),
		},
	}
}

func (c *UserCard) SaveCard(ctx context.Context) error {
	rec := c.Record
	lang, ok := fieldEnum(c.Core(), rec, LabelLanguage, EnumUserLanguage)
	if !ok {
		return api.Invalid(c.T("Error_UnknownLanguage"))
	}
	req := api.UserRequest{
		Username:          fieldText(rec, LabelUsername),
		Password:          fieldText(rec, LabelPassword),
		IsAdmin:           fieldBool(rec, LabelAdmin),
		PreferredLanguage: lang,
	}
	wasNew := c.IsNew()
	if wasNew && req.Password == "" {
		return api.Invalid(c.T("Error_PasswordRequired"))
	}
	var (
		saved *api.User
		err   error
	)
	if wasNew {
		saved, err = c.API().CreateUser(ctx, req)
	} else {
		saved, err = c.API().UpdateUser(ctx, c.ID, req)
	}
	if err != nil {
		return err
	}
	c.Item, c.ID = saved, saved.ID
	if wasNew {
		open(c.Core(), CardURI(KindUsers, saved.ID, nil))
	}
	c.RequestUIAction(viewmodel.Named(viewmodel.ActionSaved, saved.ID.String()))
	return nil
}

func (c *UserCard) DeleteCard(ctx context.Context) error {
	return c.API().DeleteUser(ctx, c.ID)
}

func (c *UserCard) Ribbon(loc localization.Localizer) []ribbon.Register {
	return []ribbon.Register{cardRibbon(loc, c, true)}
}
