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
	"net/url"
	"strings"

	"github.com/idtoolkit/admin-go/internal"
	"google.golang.org/api/iterator"
)

const providerConfigEndpoint = "https://identitytoolkit.googleapis.com/v2beta1"

const maxProviderConfigListResults = 100

// SAMLProviderConfig is the SAML auth provider configuration.
// See http://docs.oasis-open.org/security/saml/Post2.0/sstc-saml-tech-overview-2.0.html.
type SAMLProviderConfig struct {
	ID                    string
	DisplayName           string
	Enabled               bool
	IDPEntityID           string
	SSOURL                string
	RequestSigningEnabled bool
	X509Certificates      []string
	RPEntityID            string
	CallbackURL           string
}

// SAMLProviderConfigToCreate represents the options used to create a new SAMLProviderConfig.
type SAMLProviderConfigToCreate struct {
	id     string
	params map[string]interface{}
}

// NewSAMLProviderConfigToCreate creates a new SAMLProviderConfigToCreate, which can be used to
// configure the new SAMLProviderConfig to be created.
func NewSAMLProviderConfigToCreate() *SAMLProviderConfigToCreate {
	return &SAMLProviderConfigToCreate{}
}

func (config *SAMLProviderConfigToCreate) set(key string, value interface{}) *SAMLProviderConfigToCreate {
	if config.params == nil {
		config.params = make(map[string]interface{})
	}
	config.params[key] = value
	return config
}

// ID sets the provider ID for the new SAMLProviderConfig. Must have the prefix "saml.".
func (config *SAMLProviderConfigToCreate) ID(id string) *SAMLProviderConfigToCreate {
	config.id = id
	return config
}

// DisplayName sets the user-friendly display name for the new SAMLProviderConfig.
func (config *SAMLProviderConfigToCreate) DisplayName(name string) *SAMLProviderConfigToCreate {
	return config.set("displayName", name)
}

// Enabled sets whether the new SAMLProviderConfig should be enabled.
func (config *SAMLProviderConfigToCreate) Enabled(enabled bool) *SAMLProviderConfigToCreate {
	return config.set("enabled", enabled)
}

// IDPEntityID sets the IdP entity ID for the new SAMLProviderConfig.
func (config *SAMLProviderConfigToCreate) IDPEntityID(id string) *SAMLProviderConfigToCreate {
	return config.set("idpEntityId", id)
}

// SSOURL sets the IdP single sign-on URL for the new SAMLProviderConfig.
func (config *SAMLProviderConfigToCreate) SSOURL(url string) *SAMLProviderConfigToCreate {
	return config.set("ssoUrl", url)
}

// RequestSigningEnabled sets whether SAML requests should be signed for the new SAMLProviderConfig.
func (config *SAMLProviderConfigToCreate) RequestSigningEnabled(enabled bool) *SAMLProviderConfigToCreate {
	return config.set("signRequest", enabled)
}

// X509Certificates sets the IdP certificates used to verify SAML assertion signatures.
func (config *SAMLProviderConfigToCreate) X509Certificates(certs []string) *SAMLProviderConfigToCreate {
	return config.set("x509Certificates", certs)
}

// RPEntityID sets the SP entity ID for the new SAMLProviderConfig.
func (config *SAMLProviderConfigToCreate) RPEntityID(id string) *SAMLProviderConfigToCreate {
	return config.set("spEntityId", id)
}

// CallbackURL sets the SP ACS (callback) URL for the new SAMLProviderConfig.
func (config *SAMLProviderConfigToCreate) CallbackURL(url string) *SAMLProviderConfigToCreate {
	return config.set("callbackUri", url)
}

func (config *SAMLProviderConfigToCreate) buildMap() (map[string]interface{}, error) {
	if !strings.HasPrefix(config.id, "saml.") {
		return nil, fmt.Errorf("invalid SAML provider id: %q", config.id)
	}
	if len(config.params) == 0 {
		return nil, errors.New("no parameters specified in the create request")
	}

	idpEntityID, _ := config.params["idpEntityId"].(string)
	if idpEntityID == "" {
		return nil, errors.New("IDPEntityID must not be empty")
	}
	ssoURL, _ := config.params["ssoUrl"].(string)
	if ssoURL == "" {
		return nil, errors.New("SSOURL must not be empty")
	}
	if _, err := url.ParseRequestURI(ssoURL); err != nil {
		return nil, fmt.Errorf("failed to parse SSOURL: %v", err)
	}
	certs, _ := config.params["x509Certificates"].([]string)
	if len(certs) == 0 {
		return nil, errors.New("X509Certificates must not be empty")
	}
	for _, cert := range certs {
		if cert == "" {
			return nil, errors.New("X509Certificates must not contain empty strings")
		}
	}
	rpEntityID, _ := config.params["spEntityId"].(string)
	if rpEntityID == "" {
		return nil, errors.New("RPEntityID must not be empty")
	}
	callbackURL, _ := config.params["callbackUri"].(string)
	if callbackURL == "" {
		return nil, errors.New("CallbackURL must not be empty")
	}
	if _, err := url.ParseRequestURI(callbackURL); err != nil {
		return nil, fmt.Errorf("failed to parse CallbackURL: %v", err)
	}

	var certMaps []map[string]interface{}
	for _, cert := range certs {
		certMaps = append(certMaps, map[string]interface{}{"x509Certificate": cert})
	}

	idpConfig := map[string]interface{}{
		"idpEntityId":     idpEntityID,
		"ssoUrl":          ssoURL,
		"idpCertificates": certMaps,
	}
	if v, ok := config.params["signRequest"]; ok {
		idpConfig["signRequest"] = v
	}
	spConfig := map[string]interface{}{
		"spEntityId":  rpEntityID,
		"callbackUri": callbackURL,
	}

	req := map[string]interface{}{
		"idpConfig": idpConfig,
		"spConfig":  spConfig,
	}
	if v, ok := config.params["displayName"]; ok {
		req["displayName"] = v
	}
	if v, ok := config.params["enabled"]; ok {
		req["enabled"] = v
	}
	return req, nil
}

// SAMLProviderConfigToUpdate represents the options used to update an existing SAMLProviderConfig.
type SAMLProviderConfigToUpdate struct {
	params map[string]interface{}
}

// NewSAMLProviderConfigToUpdate creates a new SAMLProviderConfigToUpdate.
func NewSAMLProviderConfigToUpdate() *SAMLProviderConfigToUpdate {
	return &SAMLProviderConfigToUpdate{params: make(map[string]interface{})}
}

func (config *SAMLProviderConfigToUpdate) set(key string, value interface{}) *SAMLProviderConfigToUpdate {
	if config.params == nil {
		config.params = make(map[string]interface{})
	}
	config.params[key] = value
	return config
}

// DisplayName sets the display name to be updated. An empty name is sent as null, which removes
// the display name.
func (config *SAMLProviderConfigToUpdate) DisplayName(name string) *SAMLProviderConfigToUpdate {
	var nameOrNil interface{}
	if name != "" {
		nameOrNil = name
	}
	return config.set("displayName", nameOrNil)
}

// Enabled sets the enabled flag to be updated.
func (config *SAMLProviderConfigToUpdate) Enabled(enabled bool) *SAMLProviderConfigToUpdate {
	return config.set("enabled", enabled)
}

// IDPEntityID sets the IdP entity ID to be updated.
func (config *SAMLProviderConfigToUpdate) IDPEntityID(id string) *SAMLProviderConfigToUpdate {
	return config.set("idpEntityId", id)
}

// SSOURL sets the IdP single sign-on URL to be updated.
func (config *SAMLProviderConfigToUpdate) SSOURL(url string) *SAMLProviderConfigToUpdate {
	return config.set("ssoUrl", url)
}

// RequestSigningEnabled sets whether SAML requests should be signed.
func (config *SAMLProviderConfigToUpdate) RequestSigningEnabled(enabled bool) *SAMLProviderConfigToUpdate {
	return config.set("signRequest", enabled)
}

// X509Certificates sets the IdP certificates to be updated.
func (config *SAMLProviderConfigToUpdate) X509Certificates(certs []string) *SAMLProviderConfigToUpdate {
	return config.set("x509Certificates", certs)
}

// RPEntityID sets the SP entity ID to be updated.
func (config *SAMLProviderConfigToUpdate) RPEntityID(id string) *SAMLProviderConfigToUpdate {
	return config.set("spEntityId", id)
}

// CallbackURL sets the SP ACS (callback) URL to be updated.
func (config *SAMLProviderConfigToUpdate) CallbackURL(url string) *SAMLProviderConfigToUpdate {
	return config.set("callbackUri", url)
}

func (config *SAMLProviderConfigToUpdate) buildMaskAndMap() ([]string, map[string]interface{}, error) {
	if len(config.params) == 0 {
		return nil, nil, errors.New("no parameters specified in the update request")
	}
	if v, ok := config.params["idpEntityId"]; ok && v.(string) == "" {
		return nil, nil, errors.New("IDPEntityID must not be empty")
	}
	if v, ok := config.params["ssoUrl"]; ok {
		ssoURL := v.(string)
		if ssoURL == "" {
			return nil, nil, errors.New("SSOURL must not be empty")
		}
		if _, err := url.ParseRequestURI(ssoURL); err != nil {
			return nil, nil, fmt.Errorf("failed to parse SSOURL: %v", err)
		}
	}
	if v, ok := config.params["x509Certificates"]; ok {
		certs := v.([]string)
		if len(certs) == 0 {
			return nil, nil, errors.New("X509Certificates must not be empty")
		}
		for _, cert := range certs {
			if cert == "" {
				return nil, nil, errors.New("X509Certificates must not contain empty strings")
			}
		}
	}
	if v, ok := config.params["spEntityId"]; ok && v.(string) == "" {
		return nil, nil, errors.New("RPEntityID must not be empty")
	}
	if v, ok := config.params["callbackUri"]; ok {
		callbackURL := v.(string)
		if callbackURL == "" {
			return nil, nil, errors.New("CallbackURL must not be empty")
		}
		if _, err := url.ParseRequestURI(callbackURL); err != nil {
			return nil, nil, fmt.Errorf("failed to parse CallbackURL: %v", err)
		}
	}

	idpConfig := map[string]interface{}{}
	spConfig := map[string]interface{}{}
	req := map[string]interface{}{}
	var mask []string

	for k, v := range config.params {
		switch k {
		case "displayName", "enabled":
			req[k] = v
			mask = append(mask, k)
		case "idpEntityId", "ssoUrl", "signRequest":
			idpConfig[k] = v
			mask = append(mask, "idpConfig."+k)
		case "x509Certificates":
			var certs []map[string]interface{}
			for _, cert := range v.([]string) {
				certs = append(certs, map[string]interface{}{"x509Certificate": cert})
			}
			idpConfig["idpCertificates"] = certs
			mask = append(mask, "idpConfig.idpCertificates")
		case "spEntityId", "callbackUri":
			spConfig[k] = v
			mask = append(mask, "spConfig."+k)
		}
	}
	if len(idpConfig) > 0 {
		req["idpConfig"] = idpConfig
	}
	if len(spConfig) > 0 {
		req["spConfig"] = spConfig
	}
	return mask, req, nil
}

// OIDCProviderConfig is the OIDC auth provider configuration.
// See https://openid.net/specs/openid-connect-core-1_0.html.
type OIDCProviderConfig struct {
	ID           string
	DisplayName  string
	Enabled      bool
	ClientID     string
	ClientSecret string
	Issuer       string
}

// OIDCProviderConfigToCreate represents the options used to create a new OIDCProviderConfig.
type OIDCProviderConfigToCreate struct {
	id     string
	params map[string]interface{}
}

// NewOIDCProviderConfigToCreate creates a new OIDCProviderConfigToCreate.
func NewOIDCProviderConfigToCreate() *OIDCProviderConfigToCreate {
	return &OIDCProviderConfigToCreate{}
}

func (config *OIDCProviderConfigToCreate) set(key string, value interface{}) *OIDCProviderConfigToCreate {
	if config.params == nil {
		config.params = make(map[string]interface{})
	}
	config.params[key] = value
	return config
}

// ID sets the provider ID. Must have the prefix "oidc.".
func (config *OIDCProviderConfigToCreate) ID(id string) *OIDCProviderConfigToCreate {
	config.id = id
	return config
}

// DisplayName sets the user-friendly display name.
func (config *OIDCProviderConfigToCreate) DisplayName(name string) *OIDCProviderConfigToCreate {
	return config.set("displayName", name)
}

// Enabled sets whether the new config should be enabled.
func (config *OIDCProviderConfigToCreate) Enabled(enabled bool) *OIDCProviderConfigToCreate {
	return config.set("enabled", enabled)
}

// ClientID sets the client ID used to confirm the audience of an OIDC token.
func (config *OIDCProviderConfigToCreate) ClientID(id string) *OIDCProviderConfigToCreate {
	return config.set("clientId", id)
}

// ClientSecret sets the client secret of the new config.
func (config *OIDCProviderConfigToCreate) ClientSecret(secret string) *OIDCProviderConfigToCreate {
	return config.set("clientSecret", secret)
}

// Issuer sets the OIDC issuer used to determine the corresponding OIDC discovery document.
func (config *OIDCProviderConfigToCreate) Issuer(issuer string) *OIDCProviderConfigToCreate {
	return config.set("issuer", issuer)
}

func (config *OIDCProviderConfigToCreate) buildMap() (map[string]interface{}, error) {
	if !strings.HasPrefix(config.id, "oidc.") {
		return nil, fmt.Errorf("invalid OIDC provider id: %q", config.id)
	}
	if len(config.params) == 0 {
		return nil, errors.New("no parameters specified in the create request")
	}

	clientID, _ := config.params["clientId"].(string)
	if clientID == "" {
		return nil, errors.New("ClientID must not be empty")
	}
	issuer, _ := config.params["issuer"].(string)
	if issuer == "" {
		return nil, errors.New("Issuer must not be empty")
	}
	if _, err := url.ParseRequestURI(issuer); err != nil {
		return nil, fmt.Errorf("failed to parse Issuer: %v", err)
	}

	req := map[string]interface{}{}
	for k, v := range config.params {
		req[k] = v
	}
	return req, nil
}

// OIDCProviderConfigToUpdate represents the options used to update an existing OIDCProviderConfig.
type OIDCProviderConfigToUpdate struct {
	params map[string]interface{}
}

// NewOIDCProviderConfigToUpdate creates a new OIDCProviderConfigToUpdate.
func NewOIDCProviderConfigToUpdate() *OIDCProviderConfigToUpdate {
	return &OIDCProviderConfigToUpdate{params: make(map[string]interface{})}
}

func (config *OIDCProviderConfigToUpdate) set(key string, value interface{}) *OIDCProviderConfigToUpdate {
	if config.params == nil {
		config.params = make(map[string]interface{})
	}
	config.params[key] = value
	return config
}

// DisplayName sets the display name to be updated. An empty name is sent as null, which removes
// the display name.
func (config *OIDCProviderConfigToUpdate) DisplayName(name string) *OIDCProviderConfigToUpdate {
	var nameOrNil interface{}
	if name != "" {
		nameOrNil = name
	}
	return config.set("displayName", nameOrNil)
}

// Enabled sets the enabled flag to be updated.
func (config *OIDCProviderConfigToUpdate) Enabled(enabled bool) *OIDCProviderConfigToUpdate {
	return config.set("enabled", enabled)
}

// ClientID sets the client ID to be updated.
func (config *OIDCProviderConfigToUpdate) ClientID(id string) *OIDCProviderConfigToUpdate {
	return config.set("clientId", id)
}

// ClientSecret sets the client secret to be updated.
func (config *OIDCProviderConfigToUpdate) ClientSecret(secret string) *OIDCProviderConfigToUpdate {
	return config.set("clientSecret", secret)
}

// Issuer sets the issuer URL to be updated.
func (config *OIDCProviderConfigToUpdate) Issuer(issuer string) *OIDCProviderConfigToUpdate {
	return config.set("issuer", issuer)
}

func (config *OIDCProviderConfigToUpdate) buildMaskAndMap() ([]string, map[string]interface{}, error) {
	if len(config.params) == 0 {
		return nil, nil, errors.New("no parameters specified in the update request")
	}
	if v, ok := config.params["clientId"]; ok && v.(string) == "" {
		return nil, nil, errors.New("ClientID must not be empty")
	}
	if v, ok := config.params["issuer"]; ok {
		issuer := v.(string)
		if issuer == "" {
			return nil, nil, errors.New("Issuer must not be empty")
		}
		if _, err := url.ParseRequestURI(issuer); err != nil {
			return nil, nil, fmt.Errorf("failed to parse Issuer: %v", err)
		}
	}

	req := map[string]interface{}{}
	var mask []string
	for k, v := range config.params {
		req[k] = v
		mask = append(mask, k)
	}
	return mask, req, nil
}

// SAMLProviderConfig returns the SAMLProviderConfig with the given ID.
func (c *baseClient) SAMLProviderConfig(ctx context.Context, id string) (*SAMLProviderConfig, error) {
	if err := validateSAMLConfigID(id); err != nil {
		return nil, err
	}

	req := &internal.Request{
		Method: http.MethodGet,
		URL:    fmt.Sprintf("/inboundSamlConfigs/%s", id),
	}
	var result samlProviderConfigDAO
	if _, err := c.makeProviderConfigRequest(ctx, req, &result); err != nil {
		return nil, err
	}
	return result.toSAMLProviderConfig(), nil
}

// CreateSAMLProviderConfig creates a new SAML provider config from the given options.
func (c *baseClient) CreateSAMLProviderConfig(ctx context.Context, config *SAMLProviderConfigToCreate) (*SAMLProviderConfig, error) {
	if config == nil {
		return nil, errors.New("config must not be nil")
	}
	body, err := config.buildMap()
	if err != nil {
		return nil, err
	}

	req := &internal.Request{
		Method: http.MethodPost,
		URL:    "/inboundSamlConfigs",
		Body:   internal.NewJSONEntity(body),
		Opts: []internal.HTTPOption{
			internal.WithQueryParam("inboundSamlConfigId", config.id),
		},
	}
	var result samlProviderConfigDAO
	if _, err := c.makeProviderConfigRequest(ctx, req, &result); err != nil {
		return nil, err
	}
	return result.toSAMLProviderConfig(), nil
}

// UpdateSAMLProviderConfig updates an existing SAML provider config with the given changes.
func (c *baseClient) UpdateSAMLProviderConfig(ctx context.Context, id string, config *SAMLProviderConfigToUpdate) (*SAMLProviderConfig, error) {
	if err := validateSAMLConfigID(id); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("config must not be nil")
	}
	mask, body, err := config.buildMaskAndMap()
	if err != nil {
		return nil, err
	}

	req := &internal.Request{
		Method: http.MethodPatch,
		URL:    fmt.Sprintf("/inboundSamlConfigs/%s", id),
		Body:   internal.NewJSONEntity(body),
		Opts: []internal.HTTPOption{
			internal.WithQueryParam("updateMask", strings.Join(mask, ",")),
		},
	}
	var result samlProviderConfigDAO
	if _, err := c.makeProviderConfigRequest(ctx, req, &result); err != nil {
		return nil, err
	}
	return result.toSAMLProviderConfig(), nil
}

// DeleteSAMLProviderConfig deletes the SAMLProviderConfig with the given ID.
func (c *baseClient) DeleteSAMLProviderConfig(ctx context.Context, id string) error {
	if err := validateSAMLConfigID(id); err != nil {
		return err
	}

	req := &internal.Request{
		Method: http.MethodDelete,
		URL:    fmt.Sprintf("/inboundSamlConfigs/%s", id),
	}
	_, err := c.makeProviderConfigRequest(ctx, req, nil)
	return err
}

// SAMLProviderConfigIterator is used to iterate over SAMLProviderConfig instances.
type SAMLProviderConfigIterator struct {
	client   *baseClient
	ctx      context.Context
	nextFunc func() error
	pageInfo *iterator.PageInfo
	configs  []*SAMLProviderConfig
}

// SAMLProviderConfigs returns an iterator over SAML provider configurations.
func (c *baseClient) SAMLProviderConfigs(ctx context.Context, nextPageToken string) *SAMLProviderConfigIterator {
	it := &SAMLProviderConfigIterator{client: c, ctx: ctx}
	it.pageInfo, it.nextFunc = iterator.NewPageInfo(
		it.fetch,
		func() int { return len(it.configs) },
		func() interface{} { b := it.configs; it.configs = nil; return b })
	it.pageInfo.MaxSize = maxProviderConfigListResults
	it.pageInfo.Token = nextPageToken
	return it
}

func (it *SAMLProviderConfigIterator) fetch(pageSize int, pageToken string) (string, error) {
	req := &internal.Request{
		Method: http.MethodGet,
		URL:    "/inboundSamlConfigs",
		Opts: []internal.HTTPOption{
			internal.WithQueryParam("pageSize", fmt.Sprintf("%d", pageSize)),
			internal.WithQueryParam("pageToken", pageToken),
		},
	}
	var result struct {
		Configs       []samlProviderConfigDAO `json:"inboundSamlConfigs"`
		NextPageToken string                  `json:"nextPageToken"`
	}
	if _, err := it.client.makeProviderConfigRequest(it.ctx, req, &result); err != nil {
		return "", err
	}
	for _, dao := range result.Configs {
		it.configs = append(it.configs, dao.toSAMLProviderConfig())
	}
	return result.NextPageToken, nil
}

// Next returns the next SAMLProviderConfig. Returns iterator.Done when there are no more
// configs to return.
func (it *SAMLProviderConfigIterator) Next() (*SAMLProviderConfig, error) {
	if err := it.nextFunc(); err != nil {
		return nil, err
	}
	config := it.configs[0]
	it.configs = it.configs[1:]
	return config, nil
}

// PageInfo supports pagination.
func (it *SAMLProviderConfigIterator) PageInfo() *iterator.PageInfo {
	return it.pageInfo
}

// OIDCProviderConfig returns the OIDCProviderConfig with the given ID.
func (c *baseClient) OIDCProviderConfig(ctx context.Context, id string) (*OIDCProviderConfig, error) {
	if err := validateOIDCConfigID(id); err != nil {
		return nil, err
	}

	req := &internal.Request{
		Method: http.MethodGet,
		URL:    fmt.Sprintf("/oauthIdpConfigs/%s", id),
	}
	var result oidcProviderConfigDAO
	if _, err := c.makeProviderConfigRequest(ctx, req, &result); err != nil {
		return nil, err
	}
	return result.toOIDCProviderConfig(), nil
}

// CreateOIDCProviderConfig creates a new OIDC provider config from the given options.
func (c *baseClient) CreateOIDCProviderConfig(ctx context.Context, config *OIDCProviderConfigToCreate) (*OIDCProviderConfig, error) {
	if config == nil {
		return nil, errors.New("config must not be nil")
	}
	body, err := config.buildMap()
	if err != nil {
		return nil, err
	}

	req := &internal.Request{
		Method: http.MethodPost,
		URL:    "/oauthIdpConfigs",
		Body:   internal.NewJSONEntity(body),
		Opts: []internal.HTTPOption{
			internal.WithQueryParam("oauthIdpConfigId", config.id),
		},
	}
	var result oidcProviderConfigDAO
	if _, err := c.makeProviderConfigRequest(ctx, req, &result); err != nil {
		return nil, err
	}
	return result.toOIDCProviderConfig(), nil
}

// UpdateOIDCProviderConfig updates an existing OIDC provider config with the given changes.
func (c *baseClient) UpdateOIDCProviderConfig(ctx context.Context, id string, config *OIDCProviderConfigToUpdate) (*OIDCProviderConfig, error) {
	if err := validateOIDCConfigID(id); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("config must not be nil")
	}
	mask, body, err := config.buildMaskAndMap()
	if err != nil {
		return nil, err
	}

	req := &internal.Request{
		Method: http.MethodPatch,
		URL:    fmt.Sprintf("/oauthIdpConfigs/%s", id),
		Body:   internal.NewJSONEntity(body),
		Opts: []internal.HTTPOption{
			internal.WithQueryParam("updateMask", strings.Join(mask, ",")),
		},
	}
	var result oidcProviderConfigDAO
	if _, err := c.makeProviderConfigRequest(ctx, req, &result); err != nil {
		return nil, err
	}
	return result.toOIDCProviderConfig(), nil
}

// DeleteOIDCProviderConfig deletes the OIDCProviderConfig with the given ID.
func (c *baseClient) DeleteOIDCProviderConfig(ctx context.Context, id string) error {
	if err := validateOIDCConfigID(id); err != nil {
		return err
	}

	req := &internal.Request{
		Method: http.MethodDelete,
		URL:    fmt.Sprintf("/oauthIdpConfigs/%s", id),
	}
	_, err := c.makeProviderConfigRequest(ctx, req, nil)
	return err
}

// OIDCProviderConfigIterator is used to iterate over OIDCProviderConfig instances.
type OIDCProviderConfigIterator struct {
	client   *baseClient
	ctx      context.Context
	nextFunc func() error
	pageInfo *iterator.PageInfo
	configs  []*OIDCProviderConfig
}

// OIDCProviderConfigs returns an iterator over OIDC provider configurations.
func (c *baseClient) OIDCProviderConfigs(ctx context.Context, nextPageToken string) *OIDCProviderConfigIterator {
	it := &OIDCProviderConfigIterator{client: c, ctx: ctx}
	it.pageInfo, it.nextFunc = iterator.NewPageInfo(
		it.fetch,
		func() int { return len(it.configs) },
		func() interface{} { b := it.configs; it.configs = nil; return b })
	it.pageInfo.MaxSize = maxProviderConfigListResults
	it.pageInfo.Token = nextPageToken
	return it
}

func (it *OIDCProviderConfigIterator) fetch(pageSize int, pageToken string) (string, error) {
	req := &internal.Request{
		Method: http.MethodGet,
		URL:    "/oauthIdpConfigs",
		Opts: []internal.HTTPOption{
			internal.WithQueryParam("pageSize", fmt.Sprintf("%d", pageSize)),
			internal.WithQueryParam("pageToken", pageToken),
		},
	}
	var result struct {
		Configs       []oidcProviderConfigDAO `json:"oauthIdpConfigs"`
		NextPageToken string                  `json:"nextPageToken"`
	}
	if _, err := it.client.makeProviderConfigRequest(it.ctx, req, &result); err != nil {
		return "", err
	}
	for _, dao := range result.Configs {
		it.configs = append(it.configs, dao.toOIDCProviderConfig())
	}
	return result.NextPageToken, nil
}

// Next returns the next OIDCProviderConfig. Returns iterator.Done when there are no more
// configs to return.
func (it *OIDCProviderConfigIterator) Next() (*OIDCProviderConfig, error) {
	if err := it.nextFunc(); err != nil {
		return nil, err
	}
	config := it.configs[0]
	it.configs = it.configs[1:]
	return config, nil
}

// PageInfo supports pagination.
func (it *OIDCProviderConfigIterator) PageInfo() *iterator.PageInfo {
	return it.pageInfo
}

// makeProviderConfigRequest completes req against the provider-config endpoint, scoping the URL
// to this client's project and, when set, tenant.
func (c *baseClient) makeProviderConfigRequest(ctx context.Context, req *internal.Request, v interface{}) (*internal.Response, error) {
	if c.projectID == "" {
		return nil, errors.New("project id not available")
	}

	if c.tenantID != "" {
		req.URL = fmt.Sprintf("%s/projects/%s/tenants/%s%s", c.providerConfigEndpoint, c.projectID, c.tenantID, req.URL)
	} else {
		req.URL = fmt.Sprintf("%s/projects/%s%s", c.providerConfigEndpoint, c.projectID, req.URL)
	}
	return c.httpClient.DoAndUnmarshal(ctx, req, v)
}

type samlProviderConfigDAO struct {
	Name      string `json:"name"`
	IDPConfig struct {
		IDPEntityID     string `json:"idpEntityId"`
		SSOURL          string `json:"ssoUrl"`
		IDPCertificates []struct {
			X509Certificate string `json:"x509Certificate"`
		} `json:"idpCertificates"`
		SignRequest bool `json:"signRequest"`
	} `json:"idpConfig"`
	SPConfig struct {
		SPEntityID  string `json:"spEntityId"`
		CallbackURI string `json:"callbackUri"`
	} `json:"spConfig"`
	DisplayName string `json:"displayName"`
	Enabled     bool   `json:"enabled"`
}

func (dao *samlProviderConfigDAO) toSAMLProviderConfig() *SAMLProviderConfig {
	var certs []string
	for _, cert := range dao.IDPConfig.IDPCertificates {
		certs = append(certs, cert.X509Certificate)
	}

	return &SAMLProviderConfig{
		ID:                    extractResourceID(dao.Name),
		DisplayName:           dao.DisplayName,
		Enabled:               dao.Enabled,
		IDPEntityID:           dao.IDPConfig.IDPEntityID,
		SSOURL:                dao.IDPConfig.SSOURL,
		RequestSigningEnabled: dao.IDPConfig.SignRequest,
		X509Certificates:      certs,
		RPEntityID:            dao.SPConfig.SPEntityID,
		CallbackURL:           dao.SPConfig.CallbackURI,
	}
}

type oidcProviderConfigDAO struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Enabled      bool   `json:"enabled"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	Issuer       string `json:"issuer"`
}

func (dao *oidcProviderConfigDAO) toOIDCProviderConfig() *OIDCProviderConfig {
	return &OIDCProviderConfig{
		ID:           extractResourceID(dao.Name),
		DisplayName:  dao.DisplayName,
		Enabled:      dao.Enabled,
		ClientID:     dao.ClientID,
		ClientSecret: dao.ClientSecret,
		Issuer:       dao.Issuer,
	}
}

func validateSAMLConfigID(id string) error {
	if !strings.HasPrefix(id, "saml.") {
		return fmt.Errorf("invalid SAML provider id: %q", id)
	}
	return nil
}

func validateOIDCConfigID(id string) error {
	if !strings.HasPrefix(id, "oidc.") {
		return fmt.Errorf("invalid OIDC provider id: %q", id)
	}
	return nil
}

func extractResourceID(name string) string {
	// name format: "projects/project-id/resource/resource-id"
	segments := strings.Split(name, "/")
	return segments[len(segments)-1]
}
