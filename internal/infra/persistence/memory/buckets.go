package memory

import (
	"encoding/json"
	"fmt"
)

// Bucket names used by the durable stores when persisting a Snapshot.
const (
	BucketProjects     = "projects"
	BucketApplications = "applications"
	BucketEnquiries    = "enquiries"
	BucketUsers        = "users"
)

// Buckets lists every persisted bucket in write order.
func Buckets() []string {
	return []string{BucketProjects, BucketApplications, BucketEnquiries, BucketUsers}
}

func (s *Snapshot) target(bucket string) (any, bool) {
	switch bucket {
	case BucketProjects:
		return &s.Projects, true
	case BucketApplications:
		return &s.Applications, true
	case BucketEnquiries:
		return &s.Enquiries, true
	case BucketUsers:
		return &s.Users, true
	}
	return nil, false
}

// EncodeBuckets marshals each snapshot bucket to JSON.
func EncodeBuckets(snapshot Snapshot) (map[string][]byte, error) {
	out := make(map[string][]byte, len(Buckets()))
	for _, bucket := range Buckets() {
		target, _ := snapshot.target(bucket)
		data, err := json.Marshal(target)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", bucket, err)
		}
		out[bucket] = data
	}
	return out, nil
}

// DecodeBucket merges one persisted bucket into the snapshot. Unknown buckets
// and empty payloads are ignored so older databases still load.
func DecodeBucket(snapshot *Snapshot, bucket string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	target, ok := snapshot.target(bucket)
	if !ok {
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}
