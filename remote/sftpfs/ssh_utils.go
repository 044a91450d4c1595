package sftpfs

import (
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

func passwordAuth(password string) ssh.AuthMethod {
	if password == "" {
		return nil
	}
	return ssh.Password(password)
}

func publicKeyFile(file string) ssh.AuthMethod {
	if strings.HasPrefix(file, "~/") {
		usr, err := user.Current()
		if err != nil {
			return nil
		}
		file = filepath.Join(usr.HomeDir, file[2:])
	}

	buffer, err := os.ReadFile(file)
	if err != nil {
		return nil
	}
	key, err := ssh.ParsePrivateKey(buffer)
	if err != nil {
		return nil
	}
	return ssh.PublicKeys(key)
}

func sshAgent() ssh.AuthMethod {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil
	}
	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers)
}

func removeNils(methods []ssh.AuthMethod) []ssh.AuthMethod {
	res := make([]ssh.AuthMethod, 0, len(methods))
	for _, m := range methods {
		if m != nil {
			res = append(res, m)
		}
	}
	return res
}
