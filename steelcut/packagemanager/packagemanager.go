package packagemanager

import "context"

// PackageManager is the provider surface for one packaging system on one
// host. Mutating calls return the observed ChangeSet even when they fail.
type PackageManager interface {
	ListInstalled(ctx context.Context, opts ListOptions) (Inventory, error)
	Invalidate()
	Version(ctx context.Context, names ...string) (VersionResult, error)
	Install(ctx context.Context, name string, confinement Confinement) (ChangeSet, error)
	Remove(ctx context.Context, name string) (ChangeSet, error)
	Refresh(ctx context.Context, name string) (ChangeSet, error)
	ListUpdates(ctx context.Context) (Inventory, error)
}
