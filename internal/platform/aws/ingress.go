package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
)

// ErrAdvisoryUnavailable means the caller lacks permission to inspect
// security groups.
var ErrAdvisoryUnavailable = errors.New("security group advisory unavailable")

const anywhere = "0.0.0.0/0"

// EC2API is the subset of the EC2 client used here.
type EC2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
}

// IngressChecker inspects the security groups attached to an instance.
type IngressChecker struct {
	api EC2API
}

// NewIngressChecker creates an IngressChecker from SDK configuration.
func NewIngressChecker(cfg aws.Config) *IngressChecker {
	return &IngressChecker{api: ec2.NewFromConfig(cfg)}
}

// NewIngressCheckerFromAPI wraps a pre-configured client.
func NewIngressCheckerFromAPI(api EC2API) *IngressChecker {
	return &IngressChecker{api: api}
}

// ClosedPorts returns the TCP ports that no attached security group opens
// to 0.0.0.0/0.
func (c *IngressChecker) ClosedPorts(ctx context.Context, instanceID string, ports []int32) ([]int32, error) {
	inst, err := c.api.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return nil, classify(err, "describe instance "+instanceID)
	}

	var groupIDs []string
	for _, r := range inst.Reservations {
		for _, i := range r.Instances {
			for _, g := range i.SecurityGroups {
				if g.GroupId != nil {
					groupIDs = append(groupIDs, *g.GroupId)
				}
			}
		}
	}
	if len(groupIDs) == 0 {
		return ports, nil
	}

	sgs, err := c.api.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{GroupIds: groupIDs})
	if err != nil {
		return nil, classify(err, "describe security groups")
	}

	var closed []int32
	for _, p := range ports {
		if !openToWorld(sgs.SecurityGroups, p) {
			closed = append(closed, p)
		}
	}
	return closed, nil
}

func openToWorld(groups []types.SecurityGroup, port int32) bool {
	for _, g := range groups {
		for _, perm := range g.IpPermissions {
			if !coversPort(perm, port) {
				continue
			}
			for _, r := range perm.IpRanges {
				if aws.ToString(r.CidrIp) == anywhere {
					return true
				}
			}
		}
	}
	return false
}

func coversPort(perm types.IpPermission, port int32) bool {
	proto := aws.ToString(perm.IpProtocol)
	if proto == "-1" {
		return true
	}
	if proto != "tcp" && proto != "6" {
		return false
	}
	return aws.ToInt32(perm.FromPort) <= port && port <= aws.ToInt32(perm.ToPort)
}

// classify maps permission errors to ErrAdvisoryUnavailable.
func classify(err error, op string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "UnauthorizedOperation", "AuthFailure", "AccessDenied":
			return fmt.Errorf("%w: %s: %s", ErrAdvisoryUnavailable, op, apiErr.ErrorCode())
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
