// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package discovery

import (
	"net"
	"strings"

	"github.com/miekg/dns"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/fault"
)

const resolvConf = "/etc/resolv.conf"

// Lookuper - resolve a domain into aggregator records
type Lookuper interface {
	Lookup(domain string) ([]DnsTxt, error)
}

type lookuper struct {
	log     *logger.L
	resolve func(string) ([]string, error)
}

// NewLookuper - lookuper using the system name servers
func NewLookuper(log *logger.L) Lookuper {
	return &lookuper{
		log:     log,
		resolve: resolveTXT,
	}
}

// NewLookuperWithResolver - lookuper with an injected TXT resolver
func NewLookuperWithResolver(log *logger.L, resolve func(string) ([]string, error)) Lookuper {
	return &lookuper{
		log:     log,
		resolve: resolve,
	}
}

// Lookup - fetch and decode all aggregator records on a domain
//
// records that fail to parse are skipped, an empty result is an error
func (l *lookuper) Lookup(domain string) ([]DnsTxt, error) {
	log := l.log

	if "" == domain {
		return nil, fault.MissingParameters
	}

	texts, err := l.resolve(domain)
	if nil != err {
		return nil, err
	}

	result := make([]DnsTxt, 0, len(texts))
	for i, t := range texts {
		t = strings.TrimSpace(t)
		tag, err := parseTxt(t)
		if nil != err {
			log.Debugf("ignore TXT[%d]: %q  error: %s", i, t, err)
			continue
		}
		log.Infof("process TXT[%d]: %q", i, t)
		log.Infof("result[%d]: IPv4: %q  IPv6: %q  connect: %d  rpc: %d",
			i, tag.IPv4, tag.IPv6, tag.ConnectPort, tag.RpcPort)

		result = append(result, *tag)
	}

	if 0 == len(result) {
		return nil, fault.InvalidDnsTxtRecord
	}
	return result, nil
}

// query the system name servers directly for TXT records
func resolveTXT(domain string) ([]string, error) {
	conf, err := dns.ClientConfigFromFile(resolvConf)
	if nil != err {
		return nil, err
	}
	if 0 == len(conf.Servers) {
		return nil, fault.NotConnected
	}

	servers := conf.Servers
	// limit the name servers queried, matching resolv.conf semantics
	if len(servers) > 3 {
		servers = servers[:3]
	}

	client := dns.Client{}
	msg := dns.Msg{}
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeTXT)

	var lastError error = fault.NotConnected

	for _, server := range servers {
		reply, _, err := client.Exchange(&msg, net.JoinHostPort(server, conf.Port))
		if nil != err {
			lastError = err
			continue
		}

		texts := make([]string, 0, len(reply.Answer))
		for _, answer := range reply.Answer {
			if txt, ok := answer.(*dns.TXT); ok {
				texts = append(texts, strings.Join(txt.Txt, ""))
			}
		}
		return texts, nil
	}
	return nil, lastError
}
