package hasmtls

import (
	"crypto/x509"
	"strings"

	"github.com/jamesread/strategyshim/authpublic"
	"github.com/jamesread/strategyshim/helpers"
	log "github.com/sirupsen/logrus"
)

// MtlsStrategy identifies the user from the verified client certificate of
// the TLS connection. Certificate verification itself belongs to the
// server's tls.Config.
type MtlsStrategy struct {
	mtls authpublic.MtlsConfig
}

func NewMtlsStrategy(cfg *authpublic.Config) *MtlsStrategy {
	return &MtlsStrategy{mtls: cfg.Mtls}
}

func (s *MtlsStrategy) Defaults() authpublic.StrategyDefaults {
	return authpublic.StrategyDefaults{
		CallbackMethods: []string{"GET"},
	}
}

func (s *MtlsStrategy) HandleRequest(conn *authpublic.Conn) authpublic.Result {
	target, err := helpers.CallbackURL(conn, nil)
	if err != nil {
		helpers.Fail(conn, "invalid_callback_url", err.Error())
		return authpublic.Continue
	}

	return helpers.Redirect(conn, target)
}

func (s *MtlsStrategy) HandleCallback(conn *authpublic.Conn) authpublic.Result {
	clientCert := peerCertificate(conn)
	if clientCert == nil {
		log.Debug("mTLS: Client certificate required but not present")
		helpers.Fail(conn, "missing_client_certificate", "A client certificate is required")
		return authpublic.Continue
	}

	username := extractUsername(s.mtls, clientCert)
	if username == "" {
		log.Debug("mTLS: Could not extract username from certificate")
		helpers.Fail(conn, "missing_username", "Could not extract a username from the client certificate")
		return authpublic.Continue
	}

	helpers.SetAuth(conn, &authpublic.AuthenticatedUser{
		Username:      username,
		UsergroupLine: extractGroups(s.mtls, clientCert),
		Extra: map[string]any{
			"serial": clientCert.SerialNumber.String(),
			"issuer": clientCert.Issuer.String(),
		},
	})

	return authpublic.Continue
}

func peerCertificate(conn *authpublic.Conn) *x509.Certificate {
	if conn.Request.TLS == nil || len(conn.Request.TLS.PeerCertificates) == 0 {
		return nil
	}

	return conn.Request.TLS.PeerCertificates[0]
}

// extractUsernameFromEmail extracts username from email address, optionally stripping domain
func extractUsernameFromEmail(email string, stripDomain bool) string {
	if stripDomain {
		local, _, _ := strings.Cut(email, "@")
		return local
	}
	return email
}

// extractUsernameFromSANEmail attempts to extract username from SAN email
func extractUsernameFromSANEmail(mtls authpublic.MtlsConfig, cert *x509.Certificate) string {
	if !mtls.UsernameFromSANEmail || len(cert.EmailAddresses) == 0 {
		return ""
	}
	return extractUsernameFromEmail(cert.EmailAddresses[0], mtls.UsernameStripEmailDomain)
}

// extractUsernameFromCN extracts username from Common Name. CN is the fallback
// when no other source is configured.
func extractUsernameFromCN(mtls authpublic.MtlsConfig, cert *x509.Certificate) string {
	if mtls.UsernameFromCN || !mtls.UsernameFromSANEmail {
		return cert.Subject.CommonName
	}
	return ""
}

func extractUsername(mtls authpublic.MtlsConfig, cert *x509.Certificate) string {
	// Priority: SAN Email > CN
	if username := extractUsernameFromSANEmail(mtls, cert); username != "" {
		return username
	}
	return extractUsernameFromCN(mtls, cert)
}

// extractGroupsFromSANDNS extracts groups from SAN DNS names
func extractGroupsFromSANDNS(mtls authpublic.MtlsConfig, cert *x509.Certificate) []string {
	if !mtls.GroupFromSANDNS {
		return nil
	}

	var groups []string
	for _, dns := range cert.DNSNames {
		if mtls.GroupSANPrefix == "" || strings.HasPrefix(dns, mtls.GroupSANPrefix) {
			groups = append(groups, dns)
		}
	}
	return groups
}

// extractGroups extracts groups from the client certificate based on configuration
func extractGroups(mtls authpublic.MtlsConfig, cert *x509.Certificate) string {
	var groups []string

	groups = append(groups, extractGroupsFromSANDNS(mtls, cert)...)

	if mtls.GroupFromOU {
		groups = append(groups, cert.Subject.OrganizationalUnit...)
	}

	return strings.Join(groups, " ")
}
