// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package discovery

import (
	proto "github.com/gogo/protobuf/proto"
)

// protobuf wire messages for the endpoint backup file, marshalled
// through the struct tags; keep the field numbers stable as the file
// must stay readable across upgrades

// EndpointPB - one backed up aggregator endpoint
type EndpointPB struct {
	Address   string `protobuf:"bytes,1,opt,name=address,proto3" json:"address,omitempty"`
	Timestamp uint64 `protobuf:"varint,2,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

func (m *EndpointPB) Reset()         { *m = EndpointPB{} }
func (m *EndpointPB) String() string { return proto.CompactTextString(m) }
func (*EndpointPB) ProtoMessage()    {}

func (m *EndpointPB) GetAddress() string {
	if m != nil {
		return m.Address
	}
	return ""
}

func (m *EndpointPB) GetTimestamp() uint64 {
	if m != nil {
		return m.Timestamp
	}
	return 0
}

// EndpointList - the backup file payload
type EndpointList struct {
	Endpoints []*EndpointPB `protobuf:"bytes,1,rep,name=endpoints,proto3" json:"endpoints,omitempty"`
}

func (m *EndpointList) Reset()         { *m = EndpointList{} }
func (m *EndpointList) String() string { return proto.CompactTextString(m) }
func (*EndpointList) ProtoMessage()    {}

func (m *EndpointList) GetEndpoints() []*EndpointPB {
	if m != nil {
		return m.Endpoints
	}
	return nil
}

func init() {
	proto.RegisterType((*EndpointPB)(nil), "discovery.EndpointPB")
	proto.RegisterType((*EndpointList)(nil), "discovery.EndpointList")
}
