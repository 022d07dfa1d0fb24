// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package schemas provides schemas for common key and certificate structures
// defined in PKCS #1 ([RFC 8017]), PKCS #8 ([RFC 5958]), SEC 1 ([RFC 5915],
// [RFC 5480]) and X.509 ([RFC 5280]).
//
// Many of these structures carry nested encodings inside OCTET STRING, BIT
// STRING or ANY fields. The rules returned by [Rules] decode such fields
// based on a neighboring algorithm or type identifier:
//
//	v, err := ber.Decode(der, schemas.PrivateKeyInfo, &ber.Options{Rules: schemas.Rules()})
//
// [RFC 8017]: https://www.rfc-editor.org/rfc/rfc8017
// [RFC 5958]: https://www.rfc-editor.org/rfc/rfc5958
// [RFC 5915]: https://www.rfc-editor.org/rfc/rfc5915
// [RFC 5480]: https://www.rfc-editor.org/rfc/rfc5480
// [RFC 5280]: https://www.rfc-editor.org/rfc/rfc5280
package schemas

import (
	"maps"
	"slices"

	"codello.dev/asn1map/schema"
)

// registry maps the ASN.1 type names of the schemas in this package to the
// schemas.
var registry = map[string]*schema.Schema{
	"AlgorithmIdentifier":     AlgorithmIdentifier,
	"SubjectPublicKeyInfo":    SubjectPublicKeyInfo,
	"RSAPublicKey":            RSAPublicKey,
	"RSAPrivateKey":           RSAPrivateKey,
	"PrivateKeyInfo":          PrivateKeyInfo,
	"EncryptedPrivateKeyInfo": EncryptedPrivateKeyInfo,
	"ECParameters":            ECParameters,
	"SpecifiedECDomain":       SpecifiedECDomain,
	"FieldID":                 FieldID,
	"Characteristic-two":      CharacteristicTwo,
	"Pentanomial":             Pentanomial,
	"ECPrivateKey":            ECPrivateKey,
	"Extension":               Extension,
	"Extensions":              Extensions,
	"BasicConstraints":        BasicConstraints,
	"KeyUsage":                KeyUsage,
	"ExtKeyUsageSyntax":       ExtKeyUsage,
	"SubjectKeyIdentifier":    SubjectKeyIdentifier,
	"AuthorityKeyIdentifier":  AuthorityKeyIdentifier,
}

// Lookup returns the schema with the given ASN.1 type name.
func Lookup(name string) (*schema.Schema, bool) {
	s, ok := registry[name]
	return s, ok
}

// Names returns the type names known to [Lookup] in lexical order.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}
