// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smtpclient

// DNS address-family selection, passed to a Resolver's GetHostByName.
//
// Single source of truth — what each family means to a resolver:
//   - AddrFamilyV4     → return an IPv4 address only
//   - AddrFamilyV6     → return an IPv6 address only
//   - AddrFamilyEither → return whichever family the resolver finds first
//
// connect_with_hostname always asks for AddrFamilyEither (spec §6, §9 open
// question (i): exactly one resolved address is used, one connect attempt is
// made — there is no fallback across families or across multiple addresses).
type AddrFamily uint8

const (
	AddrFamilyV4 AddrFamily = iota
	AddrFamilyV6
	AddrFamilyEither
)

func (f AddrFamily) String() string {
	switch f {
	case AddrFamilyV4:
		return "v4"
	case AddrFamilyV6:
		return "v6"
	case AddrFamilyEither:
		return "either"
	default:
		return "unknown"
	}
}
