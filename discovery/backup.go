// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package discovery

import (
	"io/ioutil"
	"os"
	"time"

	"github.com/gogo/protobuf/proto"
)

// Backup - write the last-known-good endpoints to a file
func Backup(endpointFile string, endpoints []string) error {
	if 0 == len(endpoints) {
		return nil // never replace a backup with nothing
	}

	now := uint64(time.Now().Unix())

	list := EndpointList{
		Endpoints: make([]*EndpointPB, 0, len(endpoints)),
	}
	for _, endpoint := range endpoints {
		list.Endpoints = append(list.Endpoints, &EndpointPB{
			Address:   endpoint,
			Timestamp: now,
		})
	}

	out, err := proto.Marshal(&list)
	if nil != err {
		return err
	}
	return ioutil.WriteFile(endpointFile, out, 0600)
}

// Restore - read endpoints back from the backup file
//
// a missing file is not an error, just an empty result
func Restore(endpointFile string) ([]string, error) {
	data, err := ioutil.ReadFile(endpointFile)
	if nil != err {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var list EndpointList
	err = proto.Unmarshal(data, &list)
	if nil != err {
		return nil, err
	}

	endpoints := make([]string, 0, len(list.Endpoints))
	for _, endpoint := range list.Endpoints {
		if "" != endpoint.GetAddress() {
			endpoints = append(endpoints, endpoint.GetAddress())
		}
	}
	return endpoints, nil
}

// Sources - resolve connect strings for the aggregator
//
// DNS first; a successful lookup refreshes the backup file, a failed
// one falls back to the last backup
func Sources(lookuper Lookuper, domain string, endpointFile string) ([]string, error) {
	txts, err := lookuper.Lookup(domain)
	if nil != err {
		return Restore(endpointFile)
	}

	endpoints := make([]string, 0, 2*len(txts))
	for _, txt := range txts {
		endpoints = append(endpoints, txt.Endpoints()...)
	}

	err = Backup(endpointFile, endpoints)
	if nil != err {
		return endpoints, err
	}
	return endpoints, nil
}
