package testing

import (
	"context"

	"github.com/stretchr/testify/mock"
	"helm.sh/helm/v3/pkg/release"

	"github.com/vsops/vsbootstrap/internal/addons/helm"
)

// MockReleaseManager is a mock implementation of helm.ReleaseManager.
type MockReleaseManager struct {
	mock.Mock
}

var _ helm.ReleaseManager = (*MockReleaseManager)(nil)

// ReleaseDeployed reports the mocked deployment state.
func (m *MockReleaseManager) ReleaseDeployed(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

// InstallOrUpgrade records the install request.
func (m *MockReleaseManager) InstallOrUpgrade(ctx context.Context, name string, spec helm.ChartSpec, values helm.Values) (*release.Release, error) {
	args := m.Called(ctx, name, spec, values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*release.Release), args.Error(1)
}
