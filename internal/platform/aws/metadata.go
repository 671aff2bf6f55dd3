package aws

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
)

// MetadataAPI is the subset of the IMDS client used here.
type MetadataAPI interface {
	GetMetadata(ctx context.Context, params *imds.GetMetadataInput, optFns ...func(*imds.Options)) (*imds.GetMetadataOutput, error)
	GetInstanceIdentityDocument(ctx context.Context, params *imds.GetInstanceIdentityDocumentInput, optFns ...func(*imds.Options)) (*imds.GetInstanceIdentityDocumentOutput, error)
}

// Identity describes the running instance.
type Identity struct {
	InstanceID string
	Region     string
	PrivateIP  string
}

// Metadata reads instance metadata.
type Metadata struct {
	api MetadataAPI
}

// NewMetadata creates a Metadata reader with the default IMDS client.
func NewMetadata() *Metadata {
	return &Metadata{api: imds.New(imds.Options{})}
}

// NewMetadataFromAPI wraps a pre-configured client.
func NewMetadataFromAPI(api MetadataAPI) *Metadata {
	return &Metadata{api: api}
}

// PublicIP returns the instance's public IPv4 address.
func (m *Metadata) PublicIP(ctx context.Context) (string, error) {
	out, err := m.api.GetMetadata(ctx, &imds.GetMetadataInput{Path: "public-ipv4"})
	if err != nil {
		return "", fmt.Errorf("failed to read public-ipv4 from instance metadata: %w", err)
	}
	defer out.Content.Close()

	body, err := io.ReadAll(out.Content)
	if err != nil {
		return "", fmt.Errorf("failed to read public-ipv4 response: %w", err)
	}
	ip := strings.TrimSpace(string(body))
	if parsed := net.ParseIP(ip); parsed == nil || parsed.To4() == nil {
		return "", fmt.Errorf("instance metadata returned an invalid public IP %q", ip)
	}
	return ip, nil
}

// Identity returns the instance identity document fields.
func (m *Metadata) Identity(ctx context.Context) (Identity, error) {
	out, err := m.api.GetInstanceIdentityDocument(ctx, &imds.GetInstanceIdentityDocumentInput{})
	if err != nil {
		return Identity{}, fmt.Errorf("failed to read instance identity: %w", err)
	}
	return Identity{
		InstanceID: out.InstanceID,
		Region:     out.Region,
		PrivateIP:  out.PrivateIP,
	}, nil
}
