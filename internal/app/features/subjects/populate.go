package subjects

import (
	"context"

	"github.com/dalemusser/studentportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// populate fills FacultyInfo on each subject with one account lookup.
func (h *Handler) populate(ctx context.Context, list []models.Subject) error {
	var ids []primitive.ObjectID
	for _, s := range list {
		if s.Faculty != nil {
			ids = append(ids, *s.Faculty)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	accts, err := h.Accounts.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[primitive.ObjectID]models.Account, len(accts))
	for _, a := range accts {
		byID[a.ID] = a
	}
	for i := range list {
		if list[i].Faculty == nil {
			continue
		}
		if a, ok := byID[*list[i].Faculty]; ok {
			list[i].FacultyInfo = &models.PersonRef{ID: a.ID, Name: a.Name, Email: a.Email}
		}
	}
	return nil
}
