// Package gallery derives public gallery tokens and manages membership.
//
// Anyone holding a gallery's name and passphrase can add images to it; anyone
// holding the derived public token can list them. Tokens are a pure function
// of the server secret, the name and the passphrase.
package gallery
