package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cloudalbum/model"
	"cloudalbum/service"
	"cloudalbum/storage"
)

// fakePhotoDB is an in-memory metadata repository with the same per-record
// atomicity the Mongo implementation gets from FindOneAndDelete.
type fakePhotoDB struct {
	mu      sync.Mutex
	records map[string]model.PhotoDB
	saveErr error
}

func newFakePhotoDB() *fakePhotoDB {
	return &fakePhotoDB{records: make(map[string]model.PhotoDB)}
}

func (f *fakePhotoDB) SavePhoto(_ context.Context, photo model.PhotoDB) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[photo.ID.Hex()] = photo
	return nil
}

func (f *fakePhotoDB) GetPhoto(_ context.Context, ownerID, photoID string) (*model.PhotoDB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[photoID]
	if !ok || rec.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: photo %s", model.ErrNotFound, photoID)
	}
	return &rec, nil
}

func (f *fakePhotoDB) ListPhotos(_ context.Context, ownerID string) ([]model.PhotoDB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.PhotoDB
	for _, rec := range f.records {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakePhotoDB) DeletePhoto(_ context.Context, ownerID, photoID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[photoID]
	if !ok || rec.OwnerID != ownerID {
		return "", fmt.Errorf("%w: photo %s", model.ErrNotFound, photoID)
	}
	delete(f.records, photoID)
	return rec.Filename, nil
}

// fakeBlobStorage keeps blobs in a map keyed by owner/variant/filename.
type fakeBlobStorage struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	saveErr error
}

func newFakeBlobStorage() *fakeBlobStorage {
	return &fakeBlobStorage{blobs: make(map[string][]byte)}
}

func blobKey(email, variant, filename string) string {
	return email + "/" + variant + "/" + filename
}

func (f *fakeBlobStorage) SavePhoto(data []byte, filename, normalizedEmail string) (int64, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[blobKey(normalizedEmail, storage.VariantOriginal, filename)] = data
	f.blobs[blobKey(normalizedEmail, storage.VariantThumbnail, filename)] = append([]byte("thumb:"), data...)
	return int64(len(data)), nil
}

func (f *fakeBlobStorage) ReadPhoto(filename, normalizedEmail, variant string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[blobKey(normalizedEmail, variant, filename)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, filename)
	}
	return data, nil
}

func (f *fakeBlobStorage) DeletePhoto(filename, normalizedEmail string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := blobKey(normalizedEmail, storage.VariantOriginal, filename)
	_, existed := f.blobs[key]
	delete(f.blobs, key)
	delete(f.blobs, blobKey(normalizedEmail, storage.VariantThumbnail, filename))
	return existed, nil
}

func (f *fakeBlobStorage) dropOriginal(filename, normalizedEmail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, blobKey(normalizedEmail, storage.VariantOriginal, filename))
}

func newTestService(t *testing.T) (*service.PhotoService, *fakePhotoDB, *fakeBlobStorage) {
	t.Helper()
	db := newFakePhotoDB()
	blobs := newFakeBlobStorage()
	return &service.PhotoService{Db: db, Storage: blobs, Log: zap.NewNop()}, db, blobs
}

var (
	alice = model.CallerIdentity{UserID: "user-alice", Email: "alice@example.com"}
	bob   = model.CallerIdentity{UserID: "user-bob", Email: "bob@example.com"}
)

func mustUpload(t *testing.T, svc *service.PhotoService, ident model.CallerIdentity, name string, fields service.UploadFields) model.Photo {
	t.Helper()
	before, err := svc.List(context.Background(), ident)
	require.NoError(t, err)

	require.NoError(t, svc.Upload(context.Background(), ident, name, []byte("image-bytes"), fields))

	after, err := svc.List(context.Background(), ident)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)

	seen := make(map[string]bool, len(before))
	for _, p := range before {
		seen[p.ID] = true
	}
	for _, p := range after {
		if !seen[p.ID] {
			return p
		}
	}
	t.Fatal("uploaded photo not found in list")
	return model.Photo{}
}

func TestUpload_RoundTrip(t *testing.T) {
	svc, _, blobs := newTestService(t)

	photo := mustUpload(t, svc, alice, "IMG_0001.JPG", service.UploadFields{
		Tags:      "a,b",
		GeotagLat: "37.5",
	})

	assert.Equal(t, "a,b", photo.Tags)
	assert.Equal(t, 37.5, photo.GeotagLat, "geotag_lat must deserialize to a number")
	assert.Equal(t, int64(len("image-bytes")), photo.Size)
	assert.NotEqual(t, "IMG_0001.JPG", photo.Filename)

	data, _, err := svc.Fetch(context.Background(), alice, photo.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)
	assert.Len(t, blobs.blobs, 2)
}

func TestUpload_UnsupportedFormatHasNoSideEffects(t *testing.T) {
	svc, db, blobs := newTestService(t)

	for _, name := range []string{"notes.TXT", "noextension"} {
		err := svc.Upload(context.Background(), alice, name, []byte("data"), service.UploadFields{})
		assert.ErrorIs(t, err, model.ErrUnsupportedFormat, name)
	}

	assert.Empty(t, db.records, "no metadata record may exist")
	assert.Empty(t, blobs.blobs, "no blob may exist")
}

func TestUpload_SameOriginalNameTwice(t *testing.T) {
	svc, _, _ := newTestService(t)

	first := mustUpload(t, svc, alice, "holiday.png", service.UploadFields{})
	second := mustUpload(t, svc, alice, "holiday.png", service.UploadFields{})

	assert.NotEqual(t, first.Filename, second.Filename, "no overwrite on repeated original names")
}

func TestUpload_BlobFailureLeavesNoMetadata(t *testing.T) {
	svc, db, blobs := newTestService(t)
	blobs.saveErr = fmt.Errorf("%w: disk full", model.ErrStorageWrite)

	err := svc.Upload(context.Background(), alice, "a.jpg", []byte("data"), service.UploadFields{})
	assert.ErrorIs(t, err, model.ErrStorageWrite)
	assert.Empty(t, db.records, "no orphan metadata on blob failure")
}

func TestUpload_MetadataFailureLeavesOrphanBlob(t *testing.T) {
	svc, db, blobs := newTestService(t)
	db.saveErr = fmt.Errorf("%w: down", model.ErrStoreUnavailable)

	err := svc.Upload(context.Background(), alice, "a.jpg", []byte("data"), service.UploadFields{})
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	// The blob written before the metadata step stays behind; it is logged
	// for out-of-band cleanup, not rolled back.
	assert.Len(t, blobs.blobs, 2)
	assert.Empty(t, db.records)
}

func TestOwnershipIsolation(t *testing.T) {
	svc, _, _ := newTestService(t)

	photo := mustUpload(t, svc, alice, "private.jpg", service.UploadFields{})

	list, err := svc.List(context.Background(), bob)
	require.NoError(t, err)
	assert.Empty(t, list, "bob must not see alice's photos")

	_, _, err = svc.Fetch(context.Background(), bob, photo.ID, "")
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = svc.Delete(context.Background(), bob, photo.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	// Alice still has her photo after bob's attempts.
	list, err = svc.List(context.Background(), alice)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFetch_ThumbnailDiffersFromOriginal(t *testing.T) {
	svc, _, _ := newTestService(t)

	photo := mustUpload(t, svc, alice, "a.png", service.UploadFields{})

	original, contentType, err := svc.Fetch(context.Background(), alice, photo.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)

	thumb, _, err := svc.Fetch(context.Background(), alice, photo.ID, "thumbnail")
	require.NoError(t, err)
	assert.NotEqual(t, original, thumb)
}

func TestDelete_Twice(t *testing.T) {
	svc, _, _ := newTestService(t)

	photo := mustUpload(t, svc, alice, "a.jpg", service.UploadFields{})

	require.NoError(t, svc.Delete(context.Background(), alice, photo.ID))

	err := svc.Delete(context.Background(), alice, photo.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDelete_MissingBlobIsInconsistent(t *testing.T) {
	svc, _, blobs := newTestService(t)

	photo := mustUpload(t, svc, alice, "a.jpg", service.UploadFields{})
	blobs.dropOriginal(photo.Filename, storage.NormalizeEmail(alice.Email))

	err := svc.Delete(context.Background(), alice, photo.ID)
	assert.ErrorIs(t, err, model.ErrInconsistent)

	// The metadata record is gone regardless; there is no compensation.
	list, listErr := svc.List(context.Background(), alice)
	require.NoError(t, listErr)
	assert.Empty(t, list)
}

func TestDelete_ConcurrentExactlyOneWinner(t *testing.T) {
	svc, _, _ := newTestService(t)

	photo := mustUpload(t, svc, alice, "a.jpg", service.UploadFields{})

	const callers = 8
	results := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.Delete(context.Background(), alice, photo.ID)
		}()
	}
	wg.Wait()
	close(results)

	var successes, notFound int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, model.ErrNotFound):
			notFound++
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent delete may succeed")
	assert.Equal(t, callers-1, notFound)
}

func TestList_MalformedRecordDoesNotAbort(t *testing.T) {
	svc, db, _ := newTestService(t)

	mustUpload(t, svc, alice, "good.jpg", service.UploadFields{GeotagLat: "37.5"})

	// Corrupt a stored field directly, as a buggy writer would have.
	db.mu.Lock()
	for id, rec := range db.records {
		rec.GeotagLat = "not-a-number"
		db.records[id] = rec
	}
	db.mu.Unlock()

	list, err := svc.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Zero(t, list[0].GeotagLat)
	assert.NotEmpty(t, list[0].Filename)
}
