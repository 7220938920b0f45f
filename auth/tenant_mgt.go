// Copyright 2019 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/idtoolkit/admin-go/internal"
	"google.golang.org/api/iterator"
)

const tenantMgtEndpoint = "https://identitytoolkit.googleapis.com/v2"

const maxTenantListResults = 1000

// Tenant represents a tenant in a multi-tenant application.
//
// Multi-tenancy support requires Google Cloud's Identity Platform (GCIP). To learn more about
// GCIP, including pricing and features, see https://cloud.google.com/identity-platform.
//
// Before multi-tenancy can be used in a Google Cloud Identity Platform project, tenants must be
// enabled in that project via the Cloud Console UI.
//
// A tenant configuration provides information such as the display name, tenant identifier and
// email authentication configuration. For OIDC/SAML provider configuration management,
// TenantClient instances should be used instead of a Tenant to retrieve the list of configured
// IdPs on a tenant. When configuring these providers, note that tenants will inherit whitelisted
// domains and authenticated redirect URIs of their parent project.
//
// All other settings of a tenant will also be inherited. These will need to be managed from the
// Cloud Console UI.
type Tenant struct {
	ID                    string
	DisplayName           string
	AllowPasswordSignUp   bool
	EnableEmailLinkSignIn bool
}

// TenantToCreate represents the options used to create a new Tenant.
type TenantToCreate struct {
	displayName           string
	allowPasswordSignUp   bool
	enableEmailLinkSignIn bool
}

// NewTenantToCreate creates a new TenantToCreate, which can be used to configure the new Tenant
// to be created.
func NewTenantToCreate() *TenantToCreate {
	return &TenantToCreate{}
}

// DisplayName sets the user-friendly display name of the new tenant.
func (t *TenantToCreate) DisplayName(name string) *TenantToCreate {
	t.displayName = name
	return t
}

// AllowPasswordSignUp sets whether to allow email/password user authentication.
func (t *TenantToCreate) AllowPasswordSignUp(allow bool) *TenantToCreate {
	t.allowPasswordSignUp = allow
	return t
}

// EnableEmailLinkSignIn sets whether to enable email link user authentication.
func (t *TenantToCreate) EnableEmailLinkSignIn(enable bool) *TenantToCreate {
	t.enableEmailLinkSignIn = enable
	return t
}

func (t *TenantToCreate) buildMap() map[string]interface{} {
	return map[string]interface{}{
		"displayName": t.displayName,
		"allowPasswordSignup":   t.allowPasswordSignUp,
		"enableEmailLinkSignin": t.enableEmailLinkSignIn,
	}
}

// TenantToUpdate represents the options used to update an existing Tenant.
type TenantToUpdate struct {
	params map[string]interface{}
}

// NewTenantToUpdate creates a new TenantToUpdate.
func NewTenantToUpdate() *TenantToUpdate {
	return &TenantToUpdate{params: make(map[string]interface{})}
}

// DisplayName sets the display name to be updated.
func (t *TenantToUpdate) DisplayName(name string) *TenantToUpdate {
	t.params["displayName"] = name
	return t
}

// AllowPasswordSignUp sets the email/password sign-up flag to be updated.
func (t *TenantToUpdate) AllowPasswordSignUp(allow bool) *TenantToUpdate {
	t.params["allowPasswordSignup"] = allow
	return t
}

// EnableEmailLinkSignIn sets the email-link sign-in flag to be updated.
func (t *TenantToUpdate) EnableEmailLinkSignIn(enable bool) *TenantToUpdate {
	t.params["enableEmailLinkSignin"] = enable
	return t
}

func (t *TenantToUpdate) buildMaskAndMap() ([]string, map[string]interface{}, error) {
	if len(t.params) == 0 {
		return nil, nil, errors.New("no parameters specified in the update call")
	}
	var mask []string
	for k := range t.params {
		mask = append(mask, k)
	}
	return mask, t.params, nil
}

type tenantDAO struct {
	Name                  string `json:"name"`
	DisplayName           string `json:"displayName"`
	AllowPasswordSignup   bool   `json:"allowPasswordSignup"`
	EnableEmailLinkSignin bool   `json:"enableEmailLinkSignin"`
}

func (dao *tenantDAO) toTenant() *Tenant {
	return &Tenant{
		ID:                    extractResourceID(dao.Name),
		DisplayName:           dao.DisplayName,
		AllowPasswordSignUp:   dao.AllowPasswordSignup,
		EnableEmailLinkSignIn: dao.EnableEmailLinkSignin,
	}
}

// TenantManager is the interface used to manage tenants in a multi-tenant application.
//
// This supports creating, updating, listing and deleting the tenants of a Firebase project. It
// also supports creating new TenantClient instances scoped to specific tenant IDs.
type TenantManager struct {
	endpoint   string
	projectID  string
	httpClient *internal.HTTPClient

	base *baseClient
	conf *internal.Config

	mutex          sync.Mutex
	tenantClients  map[string]*TenantClient
}

func newTenantManager(base *baseClient, conf *internal.Config, hc *http.Client) *TenantManager {
	client := &internal.HTTPClient{
		Client:      hc,
		SuccessFn:   internal.HasSuccessStatus,
		CreateErrFn: handleHTTPError,
		Opts: []internal.HTTPOption{
			internal.WithHeader("X-Client-Version", fmt.Sprintf("Go/Admin/%s", conf.Version)),
		},
	}
	return &TenantManager{
		endpoint:      tenantMgtEndpoint,
		projectID:     conf.ProjectID,
		httpClient:    client,
		base:          base,
		conf:          conf,
		tenantClients: make(map[string]*TenantClient),
	}
}

// Tenant returns the tenant with the given tenant ID.
func (tm *TenantManager) Tenant(ctx context.Context, tenantID string) (*Tenant, error) {
	req := &internal.Request{
		Method: http.MethodGet,
		URL:    fmt.Sprintf("/tenants/%s", tenantID),
	}
	var result tenantDAO
	if _, err := tm.makeRequest(ctx, req, &result); err != nil {
		return nil, err
	}
	return result.toTenant(), nil
}

// CreateTenant creates a new tenant from the given options.
func (tm *TenantManager) CreateTenant(ctx context.Context, tenantToCreate *TenantToCreate) (*Tenant, error) {
	if tenantToCreate == nil {
		return nil, errors.New("tenantToCreate must not be nil")
	}

	req := &internal.Request{
		Method: http.MethodPost,
		URL:    "/tenants",
		Body:   internal.NewJSONEntity(tenantToCreate.buildMap()),
	}
	var result tenantDAO
	if _, err := tm.makeRequest(ctx, req, &result); err != nil {
		return nil, err
	}
	return result.toTenant(), nil
}

// UpdateTenant updates an existing tenant with the given changes.
func (tm *TenantManager) UpdateTenant(ctx context.Context, tenantID string, tenantToUpdate *TenantToUpdate) (*Tenant, error) {
	if tenantID == "" {
		return nil, errors.New("tenantID must not be empty")
	}
	if tenantToUpdate == nil {
		return nil, errors.New("tenantToUpdate must not be nil")
	}
	mask, body, err := tenantToUpdate.buildMaskAndMap()
	if err != nil {
		return nil, err
	}

	req := &internal.Request{
		Method: http.MethodPatch,
		URL:    fmt.Sprintf("/tenants/%s", tenantID),
		Body:   internal.NewJSONEntity(body),
		Opts: []internal.HTTPOption{
			internal.WithQueryParam("updateMask", strings.Join(mask, ",")),
		},
	}
	var result tenantDAO
	if _, err := tm.makeRequest(ctx, req, &result); err != nil {
		return nil, err
	}
	return result.toTenant(), nil
}

// DeleteTenant deletes the tenant with the given tenant ID.
func (tm *TenantManager) DeleteTenant(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return errors.New("tenantID must not be empty")
	}
	req := &internal.Request{
		Method: http.MethodDelete,
		URL:    fmt.Sprintf("/tenants/%s", tenantID),
	}
	_, err := tm.makeRequest(ctx, req, nil)

	tm.mutex.Lock()
	delete(tm.tenantClients, tenantID)
	tm.mutex.Unlock()

	return err
}

// TenantIterator is used to iterate over Tenant instances.
type TenantIterator struct {
	tm       *TenantManager
	ctx      context.Context
	nextFunc func() error
	pageInfo *iterator.PageInfo
	tenants  []*Tenant
}

// Tenants returns an iterator over the tenants of the Firebase project.
func (tm *TenantManager) Tenants(ctx context.Context, nextPageToken string) *TenantIterator {
	it := &TenantIterator{tm: tm, ctx: ctx}
	it.pageInfo, it.nextFunc = iterator.NewPageInfo(
		it.fetch,
		func() int { return len(it.tenants) },
		func() interface{} { b := it.tenants; it.tenants = nil; return b })
	it.pageInfo.MaxSize = maxTenantListResults
	it.pageInfo.Token = nextPageToken
	return it
}

func (it *TenantIterator) fetch(pageSize int, pageToken string) (string, error) {
	req := &internal.Request{
		Method: http.MethodGet,
		URL:    "/tenants",
		Opts: []internal.HTTPOption{
			internal.WithQueryParam("pageSize", fmt.Sprintf("%d", pageSize)),
			internal.WithQueryParam("pageToken", pageToken),
		},
	}
	var result struct {
		Tenants       []tenantDAO `json:"tenants"`
		NextPageToken string      `json:"nextPageToken"`
	}
	if _, err := it.tm.makeRequest(it.ctx, req, &result); err != nil {
		return "", err
	}
	for _, dao := range result.Tenants {
		it.tenants = append(it.tenants, dao.toTenant())
	}
	return result.NextPageToken, nil
}

// Next returns the next Tenant. Returns iterator.Done when there are no more tenants to return.
func (it *TenantIterator) Next() (*Tenant, error) {
	if err := it.nextFunc(); err != nil {
		return nil, err
	}
	tenant := it.tenants[0]
	it.tenants = it.tenants[1:]
	return tenant, nil
}

// PageInfo supports pagination.
func (it *TenantIterator) PageInfo() *iterator.PageInfo {
	return it.pageInfo
}

// AuthForTenant returns a TenantClient scoped to the given tenant ID. Each tenant ID is
// memoized: subsequent calls with the same tenant ID return the same TenantClient.
func (tm *TenantManager) AuthForTenant(tenantID string) (*TenantClient, error) {
	if tenantID == "" {
		return nil, errors.New("tenantID must not be empty")
	}

	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if tc, ok := tm.tenantClients[tenantID]; ok {
		return tc, nil
	}

	idTokenVerifier, err := newIDTokenVerifier(context.Background(), tm.projectID)
	if err != nil {
		return nil, err
	}
	cookieVerifier, err := newSessionCookieVerifier(context.Background(), tm.projectID)
	if err != nil {
		return nil, err
	}

	tc := &TenantClient{
		baseClient:      tm.base.withTenantID(tenantID),
		idTokenVerifier: idTokenVerifier.withTenantID(tenantID),
		cookieVerifier:  cookieVerifier.withTenantID(tenantID),
	}
	tm.tenantClients[tenantID] = tc
	return tc, nil
}

func (tm *TenantManager) makeRequest(ctx context.Context, req *internal.Request, v interface{}) (*internal.Response, error) {
	if tm.projectID == "" {
		return nil, errors.New("project id not available")
	}

	req.URL = fmt.Sprintf("%s/projects/%s%s", tm.endpoint, tm.projectID, req.URL)
	return tm.httpClient.DoAndUnmarshal(ctx, req, v)
}
