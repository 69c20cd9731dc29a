package entity

// Attr is a single-valued bucket attribute that blanks out when merged
// contributions disagree. An empty value signals "mixed / no single
// answer", never a real value.
type Attr struct {
	value string
	set   bool
	mixed bool
}

// Observe folds one contribution into the attribute.
func (a *Attr) Observe(v string) {
	if !a.set {
		a.value = v
		a.set = true
		return
	}
	if a.value != v {
		a.mixed = true
	}
}

// Value returns the agreed value, or "" when contributions disagreed.
func (a Attr) Value() string {
	if a.mixed {
		return ""
	}
	return a.value
}

// Mixed reports whether contributions disagreed.
func (a Attr) Mixed() bool { return a.mixed }

// Bucket accumulates count and quantity for one grouping key. Count and
// quantity only ever grow. ByType carries the key's per-takeoff-type
// breakdown; it is nil on the sub-buckets themselves.
type Bucket struct {
	Count                 int
	Quantity              float64
	UnitOfMeasure         string
	ClassificationCodeOne string
	ClassificationCodeTwo string
	ContentView           Attr
	ByType                *BucketMap
}

// Add accumulates one contribution into the bucket.
func (b *Bucket) Add(quantity float64, contentViewID string) {
	b.Count++
	b.Quantity += quantity
	b.ContentView.Observe(contentViewID)
}

// BucketMap is a keyed bucket container that preserves the insertion
// order of first occurrence. Roll-up reports depend on that order.
type BucketMap struct {
	keys []string
	m    map[string]*Bucket
}

// NewBucketMap returns an empty BucketMap.
func NewBucketMap() *BucketMap {
	return &BucketMap{m: make(map[string]*Bucket)}
}

// Get returns the bucket for key, if present.
func (bm *BucketMap) Get(key string) (*Bucket, bool) {
	b, ok := bm.m[key]
	return b, ok
}

// GetOrInsert returns the bucket for key, creating it with init on
// first use.
func (bm *BucketMap) GetOrInsert(key string, init func() *Bucket) *Bucket {
	if b, ok := bm.m[key]; ok {
		return b
	}
	b := init()
	bm.m[key] = b
	bm.keys = append(bm.keys, key)
	return b
}

// Keys returns the keys in first-insertion order.
func (bm *BucketMap) Keys() []string { return bm.keys }

// Len returns the number of buckets.
func (bm *BucketMap) Len() int { return len(bm.keys) }

// Groupings is the Item Normalizer output: the five independent
// groupings plus the two raw display projections. Buckets are owned by
// the normalizer and consumed read-only by the roll-up builder.
type Groupings struct {
	ByClassification1 *BucketMap
	ByClassification2 *BucketMap
	ByDocument        *BucketMap
	ByType            *BucketMap
	ByLocation        *BucketMap

	RawPrimary   []RawRow
	RawSecondary []RawRow
}
