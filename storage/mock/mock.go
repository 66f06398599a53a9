package mock

import "context"

type (
	GetDelegate    func(context.Context, string, any) error
	UpdateDelegate func(context.Context, map[string]any) error
)

type Store struct {
	GetFn    GetDelegate
	UpdateFn UpdateDelegate
}

func (m *Store) Get(ctx context.Context, path string, out any) error {
	if m.GetFn != nil {
		return m.GetFn(ctx, path, out)
	}

	return nil
}

func (m *Store) Update(ctx context.Context, updates map[string]any) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, updates)
	}

	return nil
}
