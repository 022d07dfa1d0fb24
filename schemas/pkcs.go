// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schemas

import "codello.dev/asn1map/schema"

// Object identifiers of public key algorithms.
const (
	OIDRSAEncryption = "1.2.840.113549.1.1.1"
	OIDECPublicKey   = "1.2.840.10045.2.1"
)

// AlgorithmIdentifier identifies an algorithm and its parameters. The
// parameters are kept in their encoded form unless a rule decodes them.
var AlgorithmIdentifier = schema.Sequence(
	schema.Field("algorithm", schema.ObjectIdentifier()),
	schema.Field("parameters", schema.Any(), schema.Optional()),
)

var SubjectPublicKeyInfo = schema.Sequence(
	schema.Field("algorithm", AlgorithmIdentifier),
	schema.Field("subjectPublicKey", schema.BitString()),
)

//region PKCS #1

var RSAPublicKey = schema.Sequence(
	schema.Field("modulus", schema.Integer()),
	schema.Field("publicExponent", schema.Integer()),
)

var otherPrimeInfo = schema.Sequence(
	schema.Field("prime", schema.Integer()),
	schema.Field("exponent", schema.Integer()),
	schema.Field("coefficient", schema.Integer()),
)

var RSAPrivateKey = schema.Sequence(
	schema.Field("version", schema.Integer(), schema.Names(map[int64]string{0: "two-prime", 1: "multi"})),
	schema.Field("modulus", schema.Integer()),
	schema.Field("publicExponent", schema.Integer()),
	schema.Field("privateExponent", schema.Integer()),
	schema.Field("prime1", schema.Integer()),
	schema.Field("prime2", schema.Integer()),
	schema.Field("exponent1", schema.Integer()),
	schema.Field("exponent2", schema.Integer()),
	schema.Field("coefficient", schema.Integer()),
	schema.Field("otherPrimeInfos", schema.SequenceOf(otherPrimeInfo, schema.Min(1)), schema.Optional()),
)

//endregion

//region PKCS #8

var attribute = schema.Sequence(
	schema.Field("type", schema.ObjectIdentifier()),
	schema.Field("values", schema.SetOf(schema.Any())),
)

// PrivateKeyInfo is the OneAsymmetricKey structure of RFC 5958. Version v1
// structures do not contain a public key.
var PrivateKeyInfo = schema.Sequence(
	schema.Field("version", schema.Integer(), schema.Names(map[int64]string{0: "v1", 1: "v2"})),
	schema.Field("privateKeyAlgorithm", AlgorithmIdentifier),
	schema.Field("privateKey", schema.OctetString()),
	schema.Field("attributes", schema.SetOf(attribute), schema.Implicit(0), schema.Optional()),
	schema.Field("publicKey", schema.BitString(), schema.Implicit(1), schema.Optional()),
)

var EncryptedPrivateKeyInfo = schema.Sequence(
	schema.Field("encryptionAlgorithm", AlgorithmIdentifier),
	schema.Field("encryptedData", schema.OctetString()),
)

//endregion
