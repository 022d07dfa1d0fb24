// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schemas

import "codello.dev/asn1map/schema"

// Object identifiers of certificate extensions with a schema in this package.
const (
	OIDSubjectKeyIdentifier   = "2.5.29.14"
	OIDKeyUsage               = "2.5.29.15"
	OIDBasicConstraints       = "2.5.29.19"
	OIDAuthorityKeyIdentifier = "2.5.29.35"
	OIDExtKeyUsage            = "2.5.29.37"
)

// Extension is a certificate extension. The extnValue holds the encoding of
// a type that is determined by extnID.
var Extension = schema.Sequence(
	schema.Field("extnID", schema.ObjectIdentifier()),
	schema.Field("critical", schema.Boolean(), schema.Default(false)),
	schema.Field("extnValue", schema.OctetString()),
)

var Extensions = schema.SequenceOf(Extension, schema.Min(1))

var BasicConstraints = schema.Sequence(
	schema.Field("cA", schema.Boolean(), schema.Default(false)),
	schema.Field("pathLenConstraint", schema.Integer(), schema.Optional()),
)

var KeyUsage = schema.BitString(map[int64]string{
	0: "digitalSignature",
	1: "nonRepudiation",
	2: "keyEncipherment",
	3: "dataEncipherment",
	4: "keyAgreement",
	5: "keyCertSign",
	6: "cRLSign",
	7: "encipherOnly",
	8: "decipherOnly",
})

var ExtKeyUsage = schema.SequenceOf(schema.ObjectIdentifier(), schema.Min(1))

var SubjectKeyIdentifier = schema.OctetString()

// AuthorityKeyIdentifier keeps the general names of the issuer in their
// encoded form.
var AuthorityKeyIdentifier = schema.Sequence(
	schema.Field("keyIdentifier", schema.OctetString(), schema.Implicit(0), schema.Optional()),
	schema.Field("authorityCertIssuer", schema.SequenceOf(schema.Any()), schema.Implicit(1), schema.Optional()),
	schema.Field("authorityCertSerialNumber", schema.Integer(), schema.Implicit(2), schema.Optional()),
)

// extensionSchemas does not list SubjectKeyIdentifier. Its value would be an
// OCTET STRING inside an OCTET STRING which cannot be told apart from the
// undecoded extnValue when encoding.
var extensionSchemas = map[string]*schema.Schema{
	OIDKeyUsage:               KeyUsage,
	OIDBasicConstraints:       BasicConstraints,
	OIDAuthorityKeyIdentifier: AuthorityKeyIdentifier,
	OIDExtKeyUsage:            ExtKeyUsage,
}
