// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package selftest

import "encoding/hex"

// Vector is a known-answer test: three 16 byte outputs after instantiation
// and one more after reseeding with the same entropy.
type Vector struct {
	Name            string
	Entropy         []byte
	Personalization []byte
	Blocks          [4][]byte
}

func unhex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

var builtin = []Vector{
	{
		Name: "personalized-1",
		Entropy: unhex("b9ca7fd6a0f5d342196d8491761c3bbe48b2829868c28000" +
			"196d8491761c3bbe48b2829868c280000000281800002500"),
		Personalization: []byte("test test test"),
		Blocks: [4][]byte{
			unhex("33a62059f5c55d0bd3941507ec3b0a5e"),
			unhex("c5f8c0e429e22d6a52f4206f8b85af36"),
			unhex("d0ac6551b7ff40e725fa412a6db20918"),
			unhex("b0df28f45e7f064640b95a036c72fb69"),
		},
	},
	{
		Name: "personalized-2",
		Entropy: unhex("b9ca7fd6a0f5d342196d8491761c3bbe48b2829868c28000" +
			"196d8491761c3bbe48b2829868c280000000281800002500"),
		Personalization: []byte("tost tost test"),
		Blocks: [4][]byte{
			unhex("2eadecb0f295c30ee66af850d2824a75"),
			unhex("c8c6662c376d783cea7cfaaea71d5391"),
			unhex("656accb3233e57b5424bc6da21a80b29"),
			unhex("3dae281a64eba3e071db0c14fe5edc2a"),
		},
	},
	{
		Name: "personalized-3",
		Entropy: unhex("429c083d82f48a4066b54927ab42c7c30eb7613cfeb0be73" +
			"f76e6d6f1da314fabb4bc10ec5fbcd46be2861e7032b377d"),
		Personalization: []byte("one two"),
		Blocks: [4][]byte{
			unhex("16ef3b87bf8d6bc9b8c5c2528cc26b30"),
			unhex("e648134d084ab9570471bf56c82af6ba"),
			unhex("b9d22e5b1d199a0bc1e2216c141e8247"),
			unhex("8755644d0ee56802692939f10575dd73"),
		},
	},
}

// Vectors returns a deep copy of the built-in vectors.
func Vectors() []Vector {
	out := make([]Vector, len(builtin))
	for i, v := range builtin {
		out[i] = Vector{
			Name:            v.Name,
			Entropy:         append([]byte(nil), v.Entropy...),
			Personalization: append([]byte(nil), v.Personalization...),
		}
		for j := range v.Blocks {
			out[i].Blocks[j] = append([]byte(nil), v.Blocks[j]...)
		}
	}
	return out
}
