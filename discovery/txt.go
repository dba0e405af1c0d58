// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package discovery

import (
	"net"
	"strconv"
	"strings"

	"github.com/lumen-rollup/lumend/fault"
)

// the tag to detect applicable TXT records from DNS
var supportedTags = map[string]struct{}{
	"lumen=v1": {},
}

// DnsTxt - one decoded aggregator record
type DnsTxt struct {
	IPv4        net.IP
	IPv6        net.IP
	ConnectPort uint16
	RpcPort     uint16
}

// decode DNS TXT records of this form
//
//	<TAG> a=<IPv4;IPv6> c=<PORT> r=<PORT>
//
// at least one address and the connect port are required; the rpc
// port is optional; unknown or repeated items are rejected
func parseTxt(s string) (*DnsTxt, error) {

	t := &DnsTxt{}

	countA := 0
	countC := 0
	countR := 0

words:
	for i, w := range strings.Split(strings.TrimSpace(s), " ") {

		if 0 == i {
			if _, ok := supportedTags[w]; ok {
				continue words
			}
			return nil, fault.InvalidDnsTxtRecord
		}

		// ignore empty
		if "" == w {
			continue words
		}

		// require form: <letter>=<word>
		if len(w) < 3 || '=' != w[1] {
			return nil, fault.InvalidDnsTxtRecord
		}

		parameter := w[2:]
		err := error(nil)
		switch w[0] {
		case 'a':
		addresses:
			for _, address := range strings.Split(parameter, ";") {
				if "" == address {
					continue addresses // trailing or doubled ';'
				}
				if '[' == address[0] {
					end := len(address) - 1
					if ']' == address[end] {
						address = address[1:end]
					}
				}
				IP := net.ParseIP(address)
				if nil == IP {
					err = fault.InvalidDnsTxtRecord
					break addresses
				}
				if nil != IP.To4() {
					t.IPv4 = IP
				} else {
					t.IPv6 = IP
				}
			}
			countA += 1

		case 'c':
			t.ConnectPort, err = parsePort(parameter)
			countC += 1

		case 'r':
			t.RpcPort, err = parsePort(parameter)
			countR += 1

		default:
			err = fault.InvalidDnsTxtRecord
		}
		if nil != err {
			return nil, err
		}
	}

	// ensure everything mandatory is present exactly once
	if 1 != countA || 1 != countC || countR > 1 {
		return nil, fault.InvalidDnsTxtRecord
	}
	if nil == t.IPv4 && nil == t.IPv6 {
		return nil, fault.InvalidDnsTxtRecord
	}

	return t, nil
}

func parsePort(s string) (uint16, error) {
	port, err := strconv.Atoi(s)
	if nil != err || port < 1 || port > 65535 {
		return 0, fault.InvalidDnsTxtRecord
	}
	return uint16(port), nil
}

// Endpoints - the "host:port" connect strings of one record
func (t *DnsTxt) Endpoints() []string {
	port := strconv.Itoa(int(t.ConnectPort))

	endpoints := make([]string, 0, 2)
	if nil != t.IPv4 {
		endpoints = append(endpoints, t.IPv4.String()+":"+port)
	}
	if nil != t.IPv6 {
		endpoints = append(endpoints, "["+t.IPv6.String()+"]:"+port)
	}
	return endpoints
}
