package store

import (
	"context"

	"github.com/amishk599/staywatch/internal/model"
)

// NopStore is a no-op store used in check mode. It never remembers anything,
// so every listing appears new on each pass.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Load(_ context.Context) (model.IDSet, error) { return model.NewIDSet(), nil }
func (s *NopStore) Save(_ context.Context, _ model.IDSet) error   { return nil }
