package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/wk-j/dev-team-sub001/internal/domain"
	apperrors "github.com/wk-j/dev-team-sub001/internal/errors"
	"github.com/wk-j/dev-team-sub001/internal/store"
)

// CreateWorkItemInput describes a new work item.
type CreateWorkItemInput struct {
	StreamID    string
	Title       string
	Description string
	Depth       string
	Tags        []string
	// AfterItemID places the item right after a sibling instead of at the end.
	AfterItemID string
}

// WorkItemDetail is a work item with its contributors.
type WorkItemDetail struct {
	Item         *domain.WorkItem     `json:"item"`
	Contributors []domain.Contributor `json:"contributors"`
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// CreateWorkItem adds a dormant item to a stream. The first item of a
// nascent stream sets it flowing.
func (e *Engine) CreateWorkItem(ctx context.Context, actorID string, in CreateWorkItemInput) (*domain.WorkItem, error) {
	const op = "createWorkItem"
	title, err := cleanName(op, "title", in.Title)
	if err != nil {
		return nil, err
	}
	depth, err := domain.ParseDepth(in.Depth)
	if err != nil {
		return nil, apperrors.InvalidArgument(op, "%v", err)
	}

	var w *domain.WorkItem
	err = e.command(ctx, op, actorID, func(tx *store.Tx, fx *effects) error {
		st, err := e.visibleStream(ctx, tx, op, actorID, in.StreamID)
		if err != nil {
			return err
		}
		if !st.State.Live() {
			return apperrors.InvalidState(op, "stream %s is %s", st.ID, st.State)
		}
		pos, err := e.position(ctx, tx, op, st.ID, in.AfterItemID)
		if err != nil {
			return err
		}

		now := e.now()
		w = &domain.WorkItem{
			ID:          e.newID(),
			StreamID:    st.ID,
			Title:       title,
			Description: strings.TrimSpace(in.Description),
			Depth:       depth,
			Tags:        cleanTags(in.Tags),
			State:       domain.ItemDormant,
			Position:    pos,
			Version:     1,
			CreatedBy:   actorID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		fx.entityID = w.ID
		if err := tx.InsertWorkItem(ctx, w); err != nil {
			return err
		}
		if err := tx.IncrementItemCount(ctx, st.ID, now); err != nil {
			return err
		}
		if st.State == domain.StreamNascent {
			if err := tx.SetStreamState(ctx, st.ID, domain.StreamFlowing, now); err != nil {
				return err
			}
			recordTransition(fx, "stream", st.State, domain.StreamFlowing)
		}
		return tx.TouchUser(ctx, actorID, now)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// position appends at the end of the stream, or takes the midpoint between
// afterID and its successor. When the gap has no room left the stream is
// respaced once and the position computed again.
func (e *Engine) position(ctx context.Context, tx *store.Tx, op, streamID, afterID string) (float64, error) {
	prev, next, err := e.positionBounds(ctx, tx, op, streamID, afterID)
	if err != nil {
		return 0, err
	}
	if pos := domain.PositionBetween(prev, next); domain.PositionFits(pos, prev, next) {
		return pos, nil
	}

	moved, err := tx.RespacePositions(ctx, streamID)
	if err != nil {
		return 0, err
	}
	e.logger.Debug().Str("stream_id", streamID).Int("items", moved).Msg("respaced stream positions")

	prev, next, err = e.positionBounds(ctx, tx, op, streamID, afterID)
	if err != nil {
		return 0, err
	}
	pos := domain.PositionBetween(prev, next)
	if !domain.PositionFits(pos, prev, next) {
		return 0, fmt.Errorf("%s: no room for a position in stream %s", op, streamID)
	}
	return pos, nil
}

func (e *Engine) positionBounds(ctx context.Context, tx *store.Tx, op, streamID, afterID string) (prev, next *float64, err error) {
	if afterID == "" {
		last, err := tx.LastPosition(ctx, streamID)
		return last, nil, err
	}
	after, err := tx.GetWorkItem(ctx, afterID)
	if err != nil {
		return nil, nil, err
	}
	if after == nil || after.StreamID != streamID {
		return nil, nil, apperrors.InvalidArgument(op, "item %s is not in stream %s", afterID, streamID)
	}
	next, err = tx.PositionAfter(ctx, streamID, after.Position)
	if err != nil {
		return nil, nil, err
	}
	return &after.Position, next, nil
}

// GetWorkItem returns an item and its contributors.
func (e *Engine) GetWorkItem(ctx context.Context, actorID, itemID string) (*WorkItemDetail, error) {
	var d WorkItemDetail
	err := e.view(ctx, func(tx *store.Tx) error {
		w, _, err := e.visibleItem(ctx, tx, "getWorkItem", actorID, itemID)
		if err != nil {
			return err
		}
		d.Item = w
		d.Contributors, err = tx.ListContributors(ctx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if d.Contributors == nil {
		d.Contributors = []domain.Contributor{}
	}
	return &d, nil
}

// AssignWorkItem kindles a dormant item and makes target its primary owner.
// The target gets a warm ping unless they assigned themselves.
func (e *Engine) AssignWorkItem(ctx context.Context, actorID, itemID, targetID, message string) (*domain.WorkItem, error) {
	const op = "assignWorkItem"
	if strings.TrimSpace(targetID) == "" {
		return nil, apperrors.InvalidArgument(op, "target user is required")
	}

	var w *domain.WorkItem
	err := e.command(ctx, op, actorID, func(tx *store.Tx, fx *effects) error {
		fx.entityID = itemID
		var st *domain.Stream
		var err error
		w, st, err = e.visibleItem(ctx, tx, op, actorID, itemID)
		if err != nil {
			return err
		}
		if w.State != domain.ItemDormant {
			return apperrors.InvalidState(op, "work item %s is %s, only dormant items can be assigned", itemID, w.State)
		}
		if err := e.requireMember(ctx, op, targetID, st.TeamID); err != nil {
			return err
		}

		now := e.now()
		from := w.State
		w.State = domain.ItemKindling
		w.PrimaryOwnerID = targetID
		w.KindledAt = &now
		w.UpdatedAt = now
		if err := tx.UpdateWorkItem(ctx, w); err != nil {
			return err
		}
		if err := tx.SetPrimaryContributor(ctx, itemID, targetID, now); err != nil {
			return err
		}
		recordTransition(fx, "work_item", from, w.State)

		// Self-assignment has no one to notify; pings to oneself are rejected elsewhere.
		if targetID != actorID {
			if _, err := e.sendPing(ctx, tx, actorID, targetID, domain.PingWarm, message, w.ID, st.ID, now); err != nil {
				return err
			}
		}
		return tx.TouchUser(ctx, actorID, now)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// HandoffWorkItem passes ownership of an item from its primary owner to a
// teammate. The pair's resonance grows and the target gets a warm ping.
func (e *Engine) HandoffWorkItem(ctx context.Context, actorID, itemID, targetID, message string) (*domain.WorkItem, error) {
	const op = "handoffWorkItem"
	if strings.TrimSpace(targetID) == "" {
		return nil, apperrors.InvalidArgument(op, "target user is required")
	}
	if targetID == actorID {
		return nil, apperrors.InvalidArgument(op, "cannot hand off to yourself")
	}

	var w *domain.WorkItem
	err := e.command(ctx, op, actorID, func(tx *store.Tx, fx *effects) error {
		fx.entityID = itemID
		var st *domain.Stream
		var err error
		w, st, err = e.visibleItem(ctx, tx, op, actorID, itemID)
		if err != nil {
			return err
		}
		if !w.State.Transferable() {
			return apperrors.InvalidState(op, "work item %s is %s and cannot be handed off", itemID, w.State)
		}
		if w.PrimaryOwnerID != actorID {
			return apperrors.Forbidden(op, "only the primary owner can hand off work item %s", itemID)
		}
		if err := e.requireMember(ctx, op, targetID, st.TeamID); err != nil {
			return err
		}

		now := e.now()
		w.PrimaryOwnerID = targetID
		w.UpdatedAt = now
		if err := tx.UpdateWorkItem(ctx, w); err != nil {
			return err
		}
		if err := tx.SetPrimaryContributor(ctx, itemID, targetID, now); err != nil {
			return err
		}
		if _, err := e.sendPing(ctx, tx, actorID, targetID, domain.PingWarm, message, w.ID, st.ID, now); err != nil {
			return err
		}
		if _, err := e.recordInteraction(ctx, tx, st.TeamID, actorID, targetID, now); err != nil {
			return err
		}
		return tx.TouchUser(ctx, actorID, now)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// TransitionWorkItem moves an owned item between kindling, blazing and
// cooling. Moving to crystallized is the same as CrystallizeWorkItem.
func (e *Engine) TransitionWorkItem(ctx context.Context, actorID, itemID, to string) (*domain.WorkItem, error) {
	const op = "transitionWorkItem"
	target, err := domain.ParseItemState(to)
	if err != nil {
		return nil, apperrors.InvalidArgument(op, "%v", err)
	}
	switch target {
	case domain.ItemCrystallized:
		return e.CrystallizeWorkItem(ctx, actorID, itemID)
	case domain.ItemKindling:
		return nil, apperrors.InvalidArgument(op, "items are kindled by assignment")
	case domain.ItemDormant, domain.ItemBlazing, domain.ItemCooling:
	}

	var w *domain.WorkItem
	err = e.command(ctx, op, actorID, func(tx *store.Tx, fx *effects) error {
		fx.entityID = itemID
		var err error
		w, _, err = e.visibleItem(ctx, tx, op, actorID, itemID)
		if err != nil {
			return err
		}
		if !w.State.CanTransition(target) {
			return apperrors.InvalidState(op, "work item %s cannot move from %s to %s", itemID, w.State, target)
		}
		if w.PrimaryOwnerID != actorID {
			return apperrors.Forbidden(op, "only the primary owner can change the state of work item %s", itemID)
		}
		now := e.now()
		from := w.State
		w.State = target
		w.UpdatedAt = now
		if err := tx.UpdateWorkItem(ctx, w); err != nil {
			return err
		}
		recordTransition(fx, "work_item", from, target)
		return tx.TouchUser(ctx, actorID, now)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// CrystallizeWorkItem completes an item. Facets and brilliance are derived
// from its contributors and the item never changes state again.
func (e *Engine) CrystallizeWorkItem(ctx context.Context, actorID, itemID string) (*domain.WorkItem, error) {
	const op = "crystallizeWorkItem"
	var w *domain.WorkItem
	err := e.command(ctx, op, actorID, func(tx *store.Tx, fx *effects) error {
		fx.entityID = itemID
		var err error
		w, _, err = e.visibleItem(ctx, tx, op, actorID, itemID)
		if err != nil {
			return err
		}
		if !w.State.CanTransition(domain.ItemCrystallized) {
			return apperrors.InvalidState(op, "work item %s is %s, only blazing or cooling items can crystallize", itemID, w.State)
		}
		if w.PrimaryOwnerID != actorID {
			return apperrors.Forbidden(op, "only the primary owner can crystallize work item %s", itemID)
		}
		contributors, err := tx.ListContributors(ctx, itemID)
		if err != nil {
			return err
		}

		now := e.now()
		from := w.State
		w.State = domain.ItemCrystallized
		w.Facets, w.Brilliance = domain.Crystal(contributors)
		w.CrystallizedAt = &now
		w.UpdatedAt = now
		if err := tx.UpdateWorkItem(ctx, w); err != nil {
			return err
		}
		recordTransition(fx, "work_item", from, w.State)
		return tx.TouchUser(ctx, actorID, now)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// ContributeEnergy records amount of energy from the actor on an item in
// progress. Item energy saturates at 100.
func (e *Engine) ContributeEnergy(ctx context.Context, actorID, itemID string, amount int) (*domain.WorkItem, error) {
	const op = "contributeEnergy"
	if amount < 1 || amount > 100 {
		return nil, apperrors.InvalidArgument(op, "amount must be between 1 and 100, got %d", amount)
	}

	var w *domain.WorkItem
	err := e.command(ctx, op, actorID, func(tx *store.Tx, fx *effects) error {
		fx.entityID = itemID
		var err error
		w, _, err = e.visibleItem(ctx, tx, op, actorID, itemID)
		if err != nil {
			return err
		}
		if !w.State.AcceptsEnergy() {
			return apperrors.InvalidState(op, "work item %s is %s and accepts no energy", itemID, w.State)
		}
		now := e.now()
		if err := tx.AddContribution(ctx, itemID, actorID, amount, now); err != nil {
			return err
		}
		w.EnergyLevel = min(100, w.EnergyLevel+amount)
		w.UpdatedAt = now
		if err := tx.UpdateWorkItem(ctx, w); err != nil {
			return err
		}
		return tx.TouchUser(ctx, actorID, now)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}
