// Package aws talks to the AWS environment of the host: instance metadata
// for the public IP and identity, the EC2 API for a security group
// advisory, and S3 for archiving run logs.
//
// Every call here is optional to a run. Callers treat failures as
// warnings.
package aws
