// Package streambloom implements a Bloom filter with a stable binary format
// and a parameter calculator for sizing it.
//
// # Basic Usage
//
// Sizing and building a filter:
//
//	calc, err := streambloom.Calculate(100_000, 0.001)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	f, err := streambloom.New(calc.Requested.NumBits, calc.Requested.NumHashes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, item := range items {
//	    f.Insert(item)
//	}
//	blob := f.Serialize()
//
// Querying a serialized filter:
//
//	f, err := streambloom.Deserialize(blob)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if f.Test([]byte("mykey")) {
//	    fmt.Println("possibly present")
//	}
//
// # Package Structure
//
//   - Engine: filter.go (New, Insert, Test, Serialize, Deserialize)
//   - Hashing: hash.go (HashScheme, double hashing base values)
//   - Serialization: header.go (24-byte header), blobfile.go (Open, WriteFile, ReadFrom)
//   - Sizing: params.go (Calculate, FromBitsAndHashes)
//   - Platform: fallocate_*.go, prefault_*.go (OS-specific file preallocation)
package streambloom
