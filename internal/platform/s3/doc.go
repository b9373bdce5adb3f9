// Package s3 provides a bucket-scoped client for S3-compatible object storage.
//
// awxgate uses it to mirror audit partitions and detail files off-host. Any
// endpoint that speaks the S3 API (AWS, MinIO, Ceph RGW) is supported; set
// PathStyle for servers that do not support virtual-hosted buckets.
package s3
