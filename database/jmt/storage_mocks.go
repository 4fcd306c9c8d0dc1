// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package jmt

import (
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"
)

// MockTreeReader is a mock of TreeReader interface.
type MockTreeReader struct {
	ctrl     *gomock.Controller
	recorder *MockTreeReaderMockRecorder
}

// MockTreeReaderMockRecorder is the mock recorder for MockTreeReader.
type MockTreeReaderMockRecorder struct {
	mock *MockTreeReader
}

// NewMockTreeReader creates a new mock instance.
func NewMockTreeReader(ctrl *gomock.Controller) *MockTreeReader {
	mock := &MockTreeReader{ctrl: ctrl}
	mock.recorder = &MockTreeReaderMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTreeReader) EXPECT() *MockTreeReaderMockRecorder {
	return m.recorder
}

// GetNode mocks base method.
func (m *MockTreeReader) GetNode(key NodeKey) (Node, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetNode", key)
	ret0, _ := ret[0].(Node)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// GetNode indicates an expected call of GetNode.
func (mr *MockTreeReaderMockRecorder) GetNode(key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetNode", reflect.TypeOf((*MockTreeReader)(nil).GetNode), key)
}

// GetRightmostLeaf mocks base method.
func (m *MockTreeReader) GetRightmostLeaf() (NodeKey, LeafNode, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetRightmostLeaf")
	ret0, _ := ret[0].(NodeKey)
	ret1, _ := ret[1].(LeafNode)
	ret2, _ := ret[2].(bool)
	ret3, _ := ret[3].(error)
	return ret0, ret1, ret2, ret3
}

// GetRightmostLeaf indicates an expected call of GetRightmostLeaf.
func (mr *MockTreeReaderMockRecorder) GetRightmostLeaf() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetRightmostLeaf", reflect.TypeOf((*MockTreeReader)(nil).GetRightmostLeaf))
}

// GetValue mocks base method.
func (m *MockTreeReader) GetValue(maxVersion Version, key KeyHash) ([]byte, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetValue", maxVersion, key)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// GetValue indicates an expected call of GetValue.
func (mr *MockTreeReaderMockRecorder) GetValue(maxVersion, key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetValue", reflect.TypeOf((*MockTreeReader)(nil).GetValue), maxVersion, key)
}

// MockTreeWriter is a mock of TreeWriter interface.
type MockTreeWriter struct {
	ctrl     *gomock.Controller
	recorder *MockTreeWriterMockRecorder
}

// MockTreeWriterMockRecorder is the mock recorder for MockTreeWriter.
type MockTreeWriterMockRecorder struct {
	mock *MockTreeWriter
}

// NewMockTreeWriter creates a new mock instance.
func NewMockTreeWriter(ctrl *gomock.Controller) *MockTreeWriter {
	mock := &MockTreeWriter{ctrl: ctrl}
	mock.recorder = &MockTreeWriterMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTreeWriter) EXPECT() *MockTreeWriterMockRecorder {
	return m.recorder
}

// WriteNodeBatch mocks base method.
func (m *MockTreeWriter) WriteNodeBatch(batch *NodeBatch) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "WriteNodeBatch", batch)
	ret0, _ := ret[0].(error)
	return ret0
}

// WriteNodeBatch indicates an expected call of WriteNodeBatch.
func (mr *MockTreeWriterMockRecorder) WriteNodeBatch(batch any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WriteNodeBatch", reflect.TypeOf((*MockTreeWriter)(nil).WriteNodeBatch), batch)
}
