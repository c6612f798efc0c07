// Package mock contains a hand-maintained gomock double for
// blockio.Device, in the shape mockgen would generate for it (the
// teacher's own internal/mock package is generated the same way from
// its BlobAccess interface; this package is not itself machine
// generated, since no code generator is run as part of this build, but
// follows its conventions byte-for-byte).
package mock

import (
	"context"
	"reflect"

	"go.uber.org/mock/gomock"
)

// MockDevice is a mock of the blockio.Device interface.
type MockDevice struct {
	ctrl     *gomock.Controller
	recorder *MockDeviceMockRecorder
}

// MockDeviceMockRecorder is the mock recorder for MockDevice.
type MockDeviceMockRecorder struct {
	mock *MockDevice
}

// NewMockDevice creates a new mock instance.
func NewMockDevice(ctrl *gomock.Controller) *MockDevice {
	mock := &MockDevice{ctrl: ctrl}
	mock.recorder = &MockDeviceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected
// use.
func (m *MockDevice) EXPECT() *MockDeviceMockRecorder {
	return m.recorder
}

// ReadAt mocks base method.
func (m *MockDevice) ReadAt(ctx context.Context, p []byte, sectorOffset int64) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ReadAt", ctx, p, sectorOffset)
	ret0, _ := ret[0].(error)
	return ret0
}

// ReadAt indicates an expected call of ReadAt.
func (mr *MockDeviceMockRecorder) ReadAt(ctx, p, sectorOffset interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ReadAt", reflect.TypeOf((*MockDevice)(nil).ReadAt), ctx, p, sectorOffset)
}

// WriteAt mocks base method.
func (m *MockDevice) WriteAt(ctx context.Context, p []byte, sectorOffset int64) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "WriteAt", ctx, p, sectorOffset)
	ret0, _ := ret[0].(error)
	return ret0
}

// WriteAt indicates an expected call of WriteAt.
func (mr *MockDeviceMockRecorder) WriteAt(ctx, p, sectorOffset interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WriteAt", reflect.TypeOf((*MockDevice)(nil).WriteAt), ctx, p, sectorOffset)
}
