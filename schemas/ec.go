// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schemas

import "codello.dev/asn1map/schema"

// Object identifiers of finite field types and characteristic-two bases.
const (
	OIDPrimeField          = "1.2.840.10045.1.1"
	OIDCharacteristicTwo   = "1.2.840.10045.1.2"
	OIDGaussianBasis       = "1.2.840.10045.1.2.3.1"
	OIDTrinomialBasis      = "1.2.840.10045.1.2.3.2"
	OIDPentanomialBasis    = "1.2.840.10045.1.2.3.3"
	OIDNamedCurveP256      = "1.2.840.10045.3.1.7"
	OIDNamedCurveP384      = "1.3.132.0.34"
	OIDNamedCurveP521      = "1.3.132.0.35"
	OIDNamedCurveSect163k1 = "1.3.132.0.1"
)

// FieldID identifies the underlying field of an elliptic curve. For prime
// fields the parameters are the prime, for characteristic-two fields a
// [CharacteristicTwo] structure.
var FieldID = schema.Sequence(
	schema.Field("fieldType", schema.ObjectIdentifier()),
	schema.Field("parameters", schema.Any()),
)

// CharacteristicTwo describes a field of characteristic two. The parameters
// depend on the basis: NULL for a Gaussian normal basis, an INTEGER for a
// trinomial basis and a [Pentanomial] for a pentanomial basis.
var CharacteristicTwo = schema.Sequence(
	schema.Field("m", schema.Integer()),
	schema.Field("basis", schema.ObjectIdentifier()),
	schema.Field("parameters", schema.Any()),
)

var Pentanomial = schema.Sequence(
	schema.Field("k1", schema.Integer()),
	schema.Field("k2", schema.Integer()),
	schema.Field("k3", schema.Integer()),
)

var curve = schema.Sequence(
	schema.Field("a", schema.OctetString()),
	schema.Field("b", schema.OctetString()),
	schema.Field("seed", schema.BitString(), schema.Optional()),
)

// SpecifiedECDomain describes an elliptic curve domain explicitly.
var SpecifiedECDomain = schema.Sequence(
	schema.Field("version", schema.Integer(), schema.Names(map[int64]string{1: "ecdpVer1", 2: "ecdpVer2", 3: "ecdpVer3"})),
	schema.Field("fieldID", FieldID),
	schema.Field("curve", curve),
	schema.Field("base", schema.OctetString()),
	schema.Field("order", schema.Integer()),
	schema.Field("cofactor", schema.Integer(), schema.Optional()),
	schema.Field("hash", AlgorithmIdentifier, schema.Optional()),
)

var ECParameters = schema.Choice(
	schema.Field("namedCurve", schema.ObjectIdentifier()),
	schema.Field("implicitCurve", schema.Null()),
	schema.Field("specifiedCurve", SpecifiedECDomain),
)

var ECPrivateKey = schema.Sequence(
	schema.Field("version", schema.Integer(), schema.Names(map[int64]string{1: "ecPrivkeyVer1"})),
	schema.Field("privateKey", schema.OctetString()),
	schema.Field("parameters", ECParameters, schema.Tags("tag:0,explicit,optional")),
	schema.Field("publicKey", schema.BitString(), schema.Tags("tag:1,explicit,optional")),
)
