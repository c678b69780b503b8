package pages

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/localization"
	"github.com/jask/finmgr/internal/ribbon"
	"github.com/jask/finmgr/internal/viewmodel"
)

// Component names of embedded panels.
const (
	PanelPostings    = "postings"
	PanelAttachments = "attachments"
)

// OverlayImportErrors lists the lines of a statement import that were not
// booked. Parameters: "imported" and "skipped" (int), "errors" ([]string).
const OverlayImportErrors = "Overlay_ImportErrors"

func label(loc localization.Localizer, key, fallback string) string {
	return localization.Text(loc, "Ribbon_"+key, fallback)
}

// listControls is the part of viewmodel.List the shared list ribbon drives.
type listControls interface {
	Core() *viewmodel.Base
	Load(ctx context.Context) error
	LoadMore(ctx context.Context) error
	MoreAvailable() bool
	ClearSearch()
	ClearRange()
}

// listRibbon is the ribbon shared by list screens. An empty cardKind hides New.
func listRibbon(loc localization.Localizer, l listControls, cardKind string, filtered bool) ribbon.Register {
	var actions []ribbon.Action
	if cardKind != "" {
		actions = append(actions, ribbon.Action{
			ID: ActionNew, Label: label(loc, ActionNew, "New"), Icon: "+", Size: ribbon.Large,
			Callback: func(context.Context) error {
				open(l.Core(), CardURI(cardKind, uuid.Nil, nil))
				return nil
			},
		})
	}
	actions = append(actions,
		ribbon.Action{
			ID: ActionReload, Label: label(loc, ActionReload, "Reload"), Icon: "↻",
			Callback: l.Load,
		},
		ribbon.Action{
			ID: ActionLoadMore, Label: label(loc, ActionLoadMore, "Load more"),
			Disabled: !l.MoreAvailable(),
			Callback: l.LoadMore,
		},
		ribbon.Action{
			ID: ActionClearFilter, Label: label(loc, ActionClearFilter, "Clear filter"),
			Disabled: !filtered,
			Callback: func(ctx context.Context) error {
				l.ClearSearch()
				l.ClearRange()
				l.Core().RequestUIAction(viewmodel.Named(viewmodel.ActionClearFilter, nil))
				return l.Load(ctx)
			},
		},
	)
	return ribbon.NewRegister(ribbon.Actions, ribbon.NewTab(label(loc, "Tab_List", "List"), 0, actions...))
}

// cardControls is the part of viewmodel.Card the shared card ribbon drives.
type cardControls interface {
	Core() *viewmodel.Base
	IsNew() bool
	HasPendingChanges() bool
	Save(ctx context.Context) bool
	Delete(ctx context.Context) bool
}

// cardRibbon is the ribbon shared by card screens.
func cardRibbon(loc localization.Localizer, c cardControls, canDelete bool) ribbon.Register {
	actions := []ribbon.Action{
		{
			ID: ActionSave, Label: label(loc, ActionSave, "Save"), Icon: "✓", Size: ribbon.Large,
			Disabled: !c.HasPendingChanges(),
			Callback: func(ctx context.Context) error {
				if !c.Save(ctx) {
					return lastErr(c.Core())
				}
				return nil
			},
		},
		{
			ID: ActionBack, Label: label(loc, ActionBack, "Back"), Icon: "←",
			Callback: func(context.Context) error {
				c.Core().RequestUIAction(viewmodel.Named(viewmodel.ActionBack, nil))
				return nil
			},
		},
	}
	if canDelete {
		actions = append(actions, ribbon.Action{
			ID: ActionDelete, Label: label(loc, ActionDelete, "Delete"), Icon: "✗",
			Disabled: c.IsNew(),
			Callback: func(ctx context.Context) error {
				if !c.Delete(ctx) {
					return lastErr(c.Core())
				}
				return nil
			},
		})
	}
	return ribbon.NewRegister(ribbon.Actions, ribbon.NewTab(label(loc, "Tab_Card", "Card"), 0, actions...))
}

// symbolAction uploads a new symbol through the card's ValidateSymbol.
func symbolAction(loc localization.Localizer, disabled bool, upload func(ctx context.Context, r io.Reader, fileName, contentType string) *uuid.UUID, b *viewmodel.Base) ribbon.Action {
	return ribbon.Action{
		ID: ActionUploadSymbol, Label: label(loc, ActionUploadSymbol, "Symbol"), Icon: "◆",
		Disabled: disabled,
		FileCallback: func(ctx context.Context, r io.Reader, fileName, contentType string) error {
			if upload(ctx, r, fileName, contentType) == nil {
				return api.NewError(0, api.CodeUploadRejected, b.T(api.CodeUploadRejected))
			}
			return nil
		},
	}
}

// storeSymbol takes over the entity saved with a new symbol. The symbol field
// shows it after the rebuild; pending edits are reapplied on top.
func storeSymbol[T any](card *viewmodel.Card[T], saved *T, err error) error {
	if err != nil {
		return err
	}
	if saved != nil {
		card.Item = saved
	}
	card.Rebuild()
	card.NotifyStateChanged()
	return nil
}

// panels manages the linked postings and attachments of a card. Both are
// children of the card; hidden panels stay alive but leave the ribbon.
type panels struct {
	parent   *viewmodel.Base
	kind     api.AttachmentEntityKind
	postings func(id uuid.UUID) api.PostingQuery // nil when the entity has no postings

	postingsList    *PostingsList
	attachmentsList *AttachmentsList
	showPostings    bool
	showAttachments bool
}

func (p *panels) isActive(child viewmodel.ViewModel) bool {
	switch {
	case p.postingsList != nil && child == viewmodel.ViewModel(p.postingsList):
		return p.showPostings
	case p.attachmentsList != nil && child == viewmodel.ViewModel(p.attachmentsList):
		return p.showAttachments
	}
	return true
}

func (p *panels) togglePostings(ctx context.Context, id uuid.UUID) error {
	if p.showPostings {
		p.showPostings = false
		p.parent.NotifyStateChanged()
		return nil
	}
	p.postingsList = viewmodel.CreateChild(p.parent, true, NewPostingsList, func(l *PostingsList) {
		l.SetOwner(p.postings(id))
	})
	p.showPostings = true
	p.parent.RequestUIAction(viewmodel.ShowPanel(viewmodel.AfterCard, PanelPostings, p.postingsList))
	return p.postingsList.Initialize(ctx)
}

func (p *panels) toggleAttachments(ctx context.Context, id uuid.UUID) error {
	if p.showAttachments {
		p.showAttachments = false
		p.parent.NotifyStateChanged()
		return nil
	}
	p.attachmentsList = viewmodel.CreateChild(p.parent, true, NewAttachmentsList, func(l *AttachmentsList) {
		l.SetOwner(p.kind, id)
	})
	p.showAttachments = true
	p.parent.RequestUIAction(viewmodel.ShowPanel(viewmodel.AfterCard, PanelAttachments, p.attachmentsList))
	return p.attachmentsList.Initialize(ctx)
}

func (p *panels) ribbon(loc localization.Localizer, id uuid.UUID) ribbon.Register {
	isNew := id == uuid.Nil
	var actions []ribbon.Action
	if p.postings != nil {
		actions = append(actions, ribbon.Action{
			ID: ActionShowPostings, Label: label(loc, ActionShowPostings, "Postings"), Icon: "≡",
			Disabled: isNew,
			Callback: func(ctx context.Context) error { return p.togglePostings(ctx, id) },
		})
	}
	actions = append(actions, ribbon.Action{
		ID: ActionShowAttachments, Label: label(loc, ActionShowAttachments, "Attachments"), Icon: "⎘",
		Disabled: isNew,
		Callback: func(ctx context.Context) error { return p.toggleAttachments(ctx, id) },
	})
	return ribbon.NewRegister(ribbon.LinkedInfo, ribbon.NewTab(label(loc, "Tab_Linked", "Linked"), 10, actions...))
}
