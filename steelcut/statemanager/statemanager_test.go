package statemanager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	pm "github.com/steelcutops/snapcut/steelcut/packagemanager"
	"github.com/steelcutops/snapcut/steelcut/packagemanager/snaptest"
)

type MockOperator struct {
	mock.Mock
}

func (m *MockOperator) Version(ctx context.Context, names ...string) (pm.VersionResult, error) {
	args := m.Called(names)
	return args.Get(0).(pm.VersionResult), args.Error(1)
}

func (m *MockOperator) Install(ctx context.Context, name string, confinement pm.Confinement) (pm.ChangeSet, error) {
	args := m.Called(name, confinement)
	changes, _ := args.Get(0).(pm.ChangeSet)
	return changes, args.Error(1)
}

func (m *MockOperator) Remove(ctx context.Context, name string) (pm.ChangeSet, error) {
	args := m.Called(name)
	changes, _ := args.Get(0).(pm.ChangeSet)
	return changes, args.Error(1)
}

func newSnapReconciler(fake *snaptest.FakeSnap) *Reconciler {
	return NewReconciler(pm.NewSnapPackageManager(fake, pm.NewCache()), nil)
}

func TestEnsureInstalledIsIdempotent(t *testing.T) {
	fake := snaptest.New(map[string]string{"core": "16"})
	fake.Store["hello"] = "2.10"
	r := newSnapReconciler(fake)
	ctx := context.Background()

	first := r.EnsureInstalled(ctx, "hello", pm.Strict)
	assert.True(t, first.Result)
	assert.Equal(t, Converged, first.Status)
	assert.Equal(t, pm.ChangeSet{"hello": {Old: "", New: "2.10"}}, first.Changes)

	second := r.EnsureInstalled(ctx, "hello", pm.Strict)
	assert.True(t, second.Result)
	assert.Equal(t, AlreadySatisfied, second.Status)
	assert.Empty(t, second.Changes)

	assert.Len(t, fake.Mutations(), 1)
}

func TestEnsureRemovedIsIdempotent(t *testing.T) {
	fake := snaptest.New(map[string]string{"hello": "2.10"})
	r := newSnapReconciler(fake)
	ctx := context.Background()

	first := r.EnsureRemoved(ctx, "hello")
	assert.True(t, first.Result)
	assert.Equal(t, Converged, first.Status)
	assert.Equal(t, pm.ChangeSet{"hello": {Old: "2.10", New: ""}}, first.Changes)

	second := r.EnsureRemoved(ctx, "hello")
	assert.True(t, second.Result)
	assert.Equal(t, AlreadySatisfied, second.Status)
	assert.Empty(t, second.Changes)
	assert.Len(t, fake.Mutations(), 1)
}

func TestEnsureInstalledPartialFailure(t *testing.T) {
	fake := snaptest.New(nil)
	fake.Failures["broken"] = "error: cannot perform the following tasks"
	fake.Partial = true
	r := newSnapReconciler(fake)

	report := r.EnsureInstalled(context.Background(), "broken", pm.Strict)

	assert.False(t, report.Result)
	assert.Equal(t, Failed, report.Status)
	assert.Equal(t, pm.ChangeSet{"broken": {Old: "", New: "1.0"}}, report.Changes)
	assert.Equal(t, "problem encountered installing snap broken: error: cannot perform the following tasks", report.Comment)
}

func TestEnsureInstalledInvalidName(t *testing.T) {
	op := new(MockOperator)
	r := NewReconciler(op, nil)

	report := r.EnsureInstalled(context.Background(), "-x", pm.Strict)

	assert.False(t, report.Result)
	assert.Equal(t, Failed, report.Status)
	assert.Empty(t, report.Changes)
	assert.Contains(t, report.Comment, "An error was encountered while installing snap -x")
	op.AssertNotCalled(t, "Version", mock.Anything)
}

func TestEnsureInstalledInvalidConfinement(t *testing.T) {
	fake := snaptest.New(nil)
	r := newSnapReconciler(fake)

	report := r.EnsureInstalled(context.Background(), "pkg", pm.Confinement("bogus"))

	assert.False(t, report.Result)
	assert.Contains(t, report.Comment, "invalid confinement mode")
	assert.Empty(t, fake.Mutations())
}

func TestEnsureInstalledGenericError(t *testing.T) {
	op := new(MockOperator)
	op.On("Version", []string{"foo"}).Return(pm.VersionResult{}, errors.New("snap list failed"))
	r := NewReconciler(op, nil)

	report := r.EnsureInstalled(context.Background(), "foo", pm.Strict)

	assert.False(t, report.Result)
	assert.Equal(t, "An error was encountered while installing snap foo: snap list failed", report.Comment)
	op.AssertNotCalled(t, "Install", mock.Anything, mock.Anything)
}

func TestEnsureRemovedOperationError(t *testing.T) {
	fake := snaptest.New(map[string]string{"core": "16"})
	fake.Failures["core"] = "error: cannot remove \"core\": snap is being used"
	r := newSnapReconciler(fake)

	report := r.EnsureRemoved(context.Background(), "core")

	assert.False(t, report.Result)
	assert.Equal(t, Failed, report.Status)
	assert.Empty(t, report.Changes)
	assert.Contains(t, report.Comment, "problem encountered removing snap core")
}

func TestEnsureRemovedOperationErrorWithoutChanges(t *testing.T) {
	op := new(MockOperator)
	fake := snaptest.New(map[string]string{"foo": "1"})
	installed, err := pm.NewSnapPackageManager(fake, nil).Version(context.Background(), "foo")
	require.NoError(t, err)

	op.On("Version", []string{"foo"}).Return(installed, nil)
	op.On("Remove", "foo").Return(nil, &pm.OperationError{Op: pm.OpRemove, Name: "foo", Errors: []string{"boom"}})
	r := NewReconciler(op, nil)

	report := r.EnsureRemoved(context.Background(), "foo")

	assert.False(t, report.Result)
	assert.NotNil(t, report.Changes)
	assert.Empty(t, report.Changes)
	assert.Equal(t, "problem encountered removing snap foo: boom", report.Comment)
	op.AssertExpectations(t)
}

func TestApply(t *testing.T) {
	fake := snaptest.New(map[string]string{"old": "1"})
	fake.Failures["bad"] = "error: snap \"bad\" not found"
	r := newSnapReconciler(fake)

	reports := r.Apply(context.Background(), []DesiredState{
		{Name: "hello", State: StateInstalled, Confinement: pm.Strict},
		{Name: "bad", State: StateInstalled, Confinement: pm.Strict},
		{Name: "old", State: StateRemoved},
		{Name: "gone", State: StateRemoved},
	})

	require.Len(t, reports, 4)
	assert.Equal(t, Converged, reports[0].Status)
	assert.Equal(t, Failed, reports[1].Status)
	assert.Equal(t, Converged, reports[2].Status)
	assert.Equal(t, AlreadySatisfied, reports[3].Status)
}

func TestApplyUnknownState(t *testing.T) {
	fake := snaptest.New(nil)
	r := newSnapReconciler(fake)

	reports := r.Apply(context.Background(), []DesiredState{
		{Name: "hello", State: "purged", Confinement: pm.Strict},
		{Name: "world", State: StateInstalled, Confinement: pm.Strict},
	})

	require.Len(t, reports, 2)
	assert.False(t, reports[0].Result)
	assert.Equal(t, Failed, reports[0].Status)
	assert.Contains(t, reports[0].Comment, `"purged"`)
	assert.Empty(t, reports[0].Changes)
	assert.Equal(t, Converged, reports[1].Status)
	assert.Len(t, fake.Mutations(), 1)
	assert.Equal(t, "world", fake.Mutations()[0].Args[len(fake.Mutations()[0].Args)-1])
}
