package repository

import (
	"bytes"
	"context"
	"errors"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Photo is a stored upload
type Photo struct {
	ID   string
	MIME string
	Body io.ReadCloser
}

// PhotoRepo stores opaque photo bytes
type PhotoRepo interface {
	Save(ctx context.Context, data []byte, mime string) (string, error)
	Open(ctx context.Context, id string) (*Photo, error)
}

type photoRepo struct {
	bucket *gridfs.Bucket
}

// NewPhotoRepo creates a GridFS-backed photo store
func NewPhotoRepo(db *mongo.Database) (PhotoRepo, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("photos"))
	if err != nil {
		return nil, err
	}
	return &photoRepo{bucket: bucket}, nil
}

func (r *photoRepo) Save(ctx context.Context, data []byte, mime string) (string, error) {
	id := primitive.NewObjectID()
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": mime})
	stream, err := r.bucket.OpenUploadStreamWithID(id, id.Hex(), opts)
	if err != nil {
		return "", err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(deadline)
	}
	if _, err := io.Copy(stream, bytes.NewReader(data)); err != nil {
		_ = stream.Abort()
		return "", err
	}
	if err := stream.Close(); err != nil {
		return "", err
	}
	return id.Hex(), nil
}

// Open returns nil, nil when the photo does not exist
func (r *photoRepo) Open(ctx context.Context, id string) (*Photo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	stream, err := r.bucket.OpenDownloadStream(oid)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}

	mime := "application/octet-stream"
	if meta := stream.GetFile().Metadata; meta != nil {
		if v, ok := meta.Lookup("contentType").StringValueOK(); ok {
			mime = v
		}
	}
	return &Photo{ID: id, MIME: mime, Body: stream}, nil
}
