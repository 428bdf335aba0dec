// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
mixrelayd receives mix relay messages from the network and optionally forwards
them through ranked relay nodes.

Every received relay is decoded, checked for duplicates, and logged.  When a
shared secret for the current mixing round is configured, relays whose session
signature does not verify are rejected.  The shared secret is only held in
memory.  When forwarding is enabled, accepted relays are sent on through two
randomly chosen relay nodes among the highest ranked nodes registered with
--relaynode.

The long form of all options (except -C) can be specified in a configuration
file that is automatically parsed when mixrelayd starts up.  By default, the
configuration file is located at ~/.mixrelayd/mixrelayd.conf on POSIX-style
operating systems and %LOCALAPPDATA%\Mixrelayd\mixrelayd.conf on Windows.

Usage:

	mixrelayd [OPTIONS]

Application Options:

	-V, --version           Display version information and exit
	-A, --appdata=          Path to application home directory
	-C, --configfile=       Path to configuration file
	    --logdir=           Directory to log output
	    --nofilelogging     Disable file logging
	-d, --debuglevel=       Logging level for all subsystems {trace, debug,
	                        info, warn, error, critical} -- You may also
	                        specify <subsystem>=<level>,<subsystem2>=<level>,...
	                        to set the log level for individual subsystems --
	                        Use show to list available subsystems (info)
	    --testnet           Use the test network
	    --simnet            Use the simulation test network
	    --regnet            Use the regression test network
	    --listen=           Add an interface/port to listen for relays
	    --nolisten          Disable listening for incoming relays
	    --idletimeout=      Duration an inbound connection may go without
	                        sending a relay before it is closed (2m)
	    --seenfiltersize=   Minimum number of recently seen relays remembered
	                        to drop duplicates (20000)
	    --sharedsecret=     Shared secret of the current mixing round used to
	                        verify received relays
	    --relaynode=        Add a relay node of the form host:port,pubkey[,pver]
	    --disablenode=      Keep the relay node with this hex encoded public key
	                        registered but ineligible to relay
	    --forward           Forward verified relays through ranked relay nodes
	    --pver=             Protocol version relay nodes must support
	    --maxrelayers=      Relay only through nodes within this many top
	                        ranks (20)
	    --dialtimeout=      How long to wait for connections to relay nodes to
	                        complete before giving up (10s)
	    --legtimeout=       How long a single relay leg may take before it is
	                        abandoned (30s)
	    --proxy=            Connect to relay nodes via SOCKS5 proxy
	    --proxyuser=        Username for proxy server
	    --proxypass=        Password for proxy server
	    --torisolation      Enable Tor stream isolation by randomizing user
	                        credentials for each connection

Help Options:

	-h, --help              Show this help message
*/
package main
