package appwrite

import "net/url"

// InitialsURL returns the URL of a generated avatar with the initials of name.
func (c *Client) InitialsURL(name string) string {
	return BuildInitialsURL(c.endpoint, c.projectID, name)
}

// BuildInitialsURL builds the generated-initials avatar URL.
func BuildInitialsURL(endpoint, projectID, name string) string {
	params := url.Values{}
	params.Set("name", name)
	if projectID != "" {
		params.Set("project", projectID)
	}
	return endpoint + "/avatars/initials?" + params.Encode()
}
