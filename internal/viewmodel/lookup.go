package viewmodel

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/records"
)

// Lookup types understood by QueryLookup besides "Enum:<Name>".
const (
	LookupContact     = "Contact"
	LookupSavingsPlan = "SavingsPlan"
	LookupSecurity    = "Security"
	LookupAccount     = "Account"
	LookupBankAccount = "bankaccount"
)

// QueryLookup resolves candidates for a lookup field. Failures of any kind,
// including malformed filters and backend errors, degrade to fewer or no items.
func (b *Base) QueryLookup(ctx context.Context, field *records.CardField, query string, skip, take int) []records.LookupItem {
	if field == nil || field.LookupType == "" {
		return nil
	}
	if name, ok := enumLookupName(field.LookupType); ok {
		return b.lookupEnum(name, query)
	}
	if b.services.API == nil {
		return nil
	}
	filter := parseLookupFilter(field.LookupFilter)
	switch strings.ToLower(field.LookupType) {
	case strings.ToLower(LookupContact):
		return b.lookupContacts(ctx, filter, query, skip, take)
	case strings.ToLower(LookupSavingsPlan):
		return b.lookupSavingsPlans(ctx, filter, query, skip, take)
	case strings.ToLower(LookupSecurity):
		return b.lookupSecurities(ctx, filter, query, skip, take)
	case strings.ToLower(LookupAccount), LookupBankAccount:
		return b.lookupAccounts(ctx, filter, query)
	}
	return nil
}

func (b *Base) lookupEnum(name, query string) []records.LookupItem {
	canonical, members, ok := b.services.Enums.Lookup(name)
	if !ok {
		b.services.Logger.Debug("unknown enum lookup", "enum", name)
		return nil
	}
	var out []records.LookupItem
	for _, m := range members {
		display := m
		if s := b.localize(enumKey(canonical, m)); !s.ResourceNotFound {
			display = s.Value
		}
		if !containsFold(display, query) {
			continue
		}
		out = append(out, records.LookupItem{Key: uuid.Nil, Name: display})
	}
	return out
}

func (b *Base) lookupContacts(ctx context.Context, filter map[string]string, query string, skip, take int) []records.LookupItem {
	q := api.ContactQuery{Search: strings.TrimSpace(query), Skip: skip, Take: take}
	if raw, ok := filter["type"]; ok {
		if t, ok := api.ParseContactType(raw); ok {
			q.Type = &t
		}
	}
	contacts, err := b.services.API.ListContacts(ctx, q)
	if err != nil {
		b.services.Logger.Debug("contact lookup failed", "err", err)
		return nil
	}
	out := make([]records.LookupItem, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, records.LookupItem{Key: c.ID, Name: c.Name})
	}
	return out
}

func (b *Base) lookupSavingsPlans(ctx context.Context, filter map[string]string, query string, skip, take int) []records.LookupItem {
	plans, err := b.services.API.ListSavingsPlans(ctx, onlyActive(filter))
	if err != nil {
		b.services.Logger.Debug("savings plan lookup failed", "err", err)
		return nil
	}
	var out []records.LookupItem
	for _, p := range plans {
		if containsFold(p.Name, query) || containsFold(p.ContractNumber, query) {
			out = append(out, records.LookupItem{Key: p.ID, Name: p.Name})
		}
	}
	return page(out, skip, take)
}

func (b *Base) lookupSecurities(ctx context.Context, filter map[string]string, query string, skip, take int) []records.LookupItem {
	secs, err := b.services.API.ListSecurities(ctx, onlyActive(filter))
	if err != nil {
		b.services.Logger.Debug("security lookup failed", "err", err)
		return nil
	}
	var out []records.LookupItem
	for _, s := range secs {
		if containsFold(s.Name, query) || containsFold(s.Identifier, query) {
			out = append(out, records.LookupItem{Key: s.ID, Name: s.Name})
		}
	}
	return page(out, skip, take)
}

func (b *Base) lookupAccounts(ctx context.Context, filter map[string]string, query string) []records.LookupItem {
	var bank *uuid.UUID
	if raw, ok := filter["bankcontactid"]; ok {
		if id, err := uuid.Parse(raw); err == nil {
			bank = &id
		}
	}
	accounts, err := b.services.API.ListAccounts(ctx, bank)
	if err != nil {
		b.services.Logger.Debug("account lookup failed", "err", err)
		return nil
	}
	var out []records.LookupItem
	for _, a := range accounts {
		if containsFold(a.Name, query) || containsFold(a.IBAN, query) {
			out = append(out, records.LookupItem{Key: a.ID, Name: a.Name})
		}
	}
	return out
}

// parseLookupFilter reads "Key=Value" pairs separated by ';' or ','. Keys are
// lower-cased; anything else is ignored.
func parseLookupFilter(s string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' }) {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}

func onlyActive(filter map[string]string) bool {
	v, err := strconv.ParseBool(filter["onlyactive"])
	return err == nil && v
}

func containsFold(s, sub string) bool {
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func page[T any](items []T, skip, take int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return nil
	}
	items = items[skip:]
	if take > 0 && take < len(items) {
		items = items[:take]
	}
	return items
}
