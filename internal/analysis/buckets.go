package analysis

// Bucket is one of six fixed ranges partitioning the position axis.
type Bucket int

const (
	BucketTop10 Bucket = iota // [1, 10)
	Bucket11To20              // [10, 20)
	Bucket21To30              // [20, 30)
	Bucket31To50              // [30, 50)
	Bucket51To100             // [50, 100)
	Bucket100Plus             // [100, 200]
	numBuckets
)

// bucketEdges are the lower edges of each bucket. The final bucket is closed
// at MaxPosition so the buckets partition (0, 200] with no gap.
var bucketEdges = [numBuckets]float64{0, 10, 20, 30, 50, 100}

// String returns the reporting label of the bucket.
func (b Bucket) String() string {
	switch b {
	case BucketTop10:
		return "Top-10"
	case Bucket11To20:
		return "11-20"
	case Bucket21To30:
		return "21-30"
	case Bucket31To50:
		return "31-50"
	case Bucket51To100:
		return "51-100"
	case Bucket100Plus:
		return "100+"
	default:
		return "unknown"
	}
}

// BucketFor maps a cleaned position to its bucket. Positions are assumed to
// satisfy 0 < pos <= MaxPosition; every such value maps to exactly one bucket.
func BucketFor(pos float64) Bucket {
	for b := Bucket100Plus; b > BucketTop10; b-- {
		if pos >= bucketEdges[b] {
			return b
		}
	}
	return BucketTop10
}

// AllBuckets returns the buckets in ascending position order.
func AllBuckets() []Bucket {
	buckets := make([]Bucket, numBuckets)
	for i := range buckets {
		buckets[i] = Bucket(i)
	}
	return buckets
}
