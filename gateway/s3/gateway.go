package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sussybocca/Server.x-2/data"
)

const objectPrefix = "servers/"

// S3Gateway stores every server as a JSON object in an S3 compatible bucket.
type S3Gateway struct {
	mu sync.RWMutex

	client     *minio.Client
	bucketName string
}

func NewS3Gateway(endpoint, bucketName, accessKey, secretKey string, useSsl bool) (*S3Gateway, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSsl,
	})
	if err != nil {
		return nil, err
	}

	return &S3Gateway{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// Returns the identifier name defined for this gateway
func (*S3Gateway) Name() string {
	return "s3"
}

// Open is part of the lifecycle behaviour and fails if the bucket is missing.
func (sg *S3Gateway) Open(ctx context.Context) error {
	sg.mu.Lock()
	defer sg.mu.Unlock()

	exists, err := sg.client.BucketExists(ctx, sg.bucketName)
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("%w: bucket '%s' does not exist", data.ErrGatewayFailed, sg.bucketName)
	}

	return nil
}

func (sg *S3Gateway) Close(ctx context.Context) error {
	return nil
}

func (sg *S3Gateway) ListPublicLocations(ctx context.Context) ([]data.VirtualLocation, error) {
	sg.mu.RLock()
	defer sg.mu.RUnlock()

	var servers []*data.Server
	for object := range sg.client.ListObjects(ctx, sg.bucketName, minio.ListObjectsOptions{
		Prefix:    objectPrefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, object.Err
		}
		if !strings.HasSuffix(object.Key, ".json") {
			continue
		}

		server, err := sg.readServer(ctx, object.Key)
		if err != nil {
			return nil, err
		}
		if server.Public {
			servers = append(servers, server)
		}
	}

	sort.SliceStable(servers, func(i, j int) bool {
		return servers[i].CreatedAt.Before(servers[j].CreatedAt)
	})

	locations := make([]data.VirtualLocation, 0, len(servers))
	for _, server := range servers {
		locations = append(locations, server.Location)
	}

	return locations, nil
}

func (sg *S3Gateway) LoadTree(ctx context.Context, location data.VirtualLocation) (*data.Server, error) {
	sg.mu.RLock()
	defer sg.mu.RUnlock()

	server, err := sg.readServer(ctx, objectKey(location))
	if err != nil {
		if isNotExist(err) {
			return nil, fmt.Errorf("failed to load '%s': %w", location, data.ErrNotExist)
		}
		return nil, err
	}

	return server, nil
}

func (sg *S3Gateway) SaveTree(ctx context.Context, location data.VirtualLocation, files *data.FileNode) error {
	sg.mu.Lock()
	defer sg.mu.Unlock()

	key := objectKey(location)
	server, err := sg.readServer(ctx, key)
	if err != nil {
		if isNotExist(err) {
			return fmt.Errorf("failed to save '%s': %w", location, data.ErrNotExist)
		}
		return err
	}

	server.Files = files
	return sg.writeServer(ctx, key, server)
}

func (sg *S3Gateway) CreateServer(ctx context.Context, server *data.Server) error {
	sg.mu.Lock()
	defer sg.mu.Unlock()

	key := objectKey(server.Location)
	if _, err := sg.client.StatObject(ctx, sg.bucketName, key, minio.StatObjectOptions{}); err == nil {
		return fmt.Errorf("failed to create '%s': %w", server.Location, data.ErrExist)
	} else if !isNotExist(err) {
		return err
	}

	return sg.writeServer(ctx, key, server)
}

func (sg *S3Gateway) readServer(ctx context.Context, key string) (*data.Server, error) {
	object, err := sg.client.GetObject(ctx, sg.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()

	b, err := io.ReadAll(object)
	if err != nil {
		return nil, err
	}

	var server data.Server
	if err := json.Unmarshal(b, &server); err != nil {
		return nil, fmt.Errorf("failed to decode '%s': %w", key, err)
	}

	return &server, nil
}

func (sg *S3Gateway) writeServer(ctx context.Context, key string, server *data.Server) error {
	b, err := json.Marshal(server)
	if err != nil {
		return err
	}

	_, err = sg.client.PutObject(ctx, sg.bucketName, key, bytes.NewReader(b), int64(len(b)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

func objectKey(location data.VirtualLocation) string {
	return objectPrefix + url.PathEscape(string(location)) + ".json"
}

func isNotExist(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
