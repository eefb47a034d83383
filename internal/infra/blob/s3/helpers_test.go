package s3

import "net/http"

func fakeClient(bucket *FakeBucket) *http.Client { return &http.Client{Transport: bucket} }
