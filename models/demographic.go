package models

import "time"

// Bucket is a named demographic counter column.
type Bucket string

const (
	BucketMale     Bucket = "male"
	BucketFemale   Bucket = "female"
	BucketTeens    Bucket = "teens"
	BucketTwenties Bucket = "twenties"
	BucketThirties Bucket = "thirties"
	BucketForties  Bucket = "forties"
	BucketEtc      Bucket = "etc"
)

// Buckets is the fixed, ordered set shared by the store and the ranking views.
var Buckets = []Bucket{
	BucketMale,
	BucketFemale,
	BucketTeens,
	BucketTwenties,
	BucketThirties,
	BucketForties,
	BucketEtc,
}

// AgeBuckets is the subset used for age-band charts.
var AgeBuckets = []Bucket{BucketTeens, BucketTwenties, BucketThirties, BucketForties, BucketEtc}

func ParseBucket(s string) (Bucket, bool) {
	for _, b := range Buckets {
		if string(b) == s {
			return b, true
		}
	}
	return "", false
}

// AgeBucketFor returns the age band of someone born in birthYear as of now.
func AgeBucketFor(birthYear int, now time.Time) Bucket {
	age := now.Year() - birthYear
	switch {
	case age >= 10 && age < 20:
		return BucketTeens
	case age >= 20 && age < 30:
		return BucketTwenties
	case age >= 30 && age < 40:
		return BucketThirties
	case age >= 40 && age < 50:
		return BucketForties
	default:
		return BucketEtc
	}
}
