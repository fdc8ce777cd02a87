package testutil

// Canned copies of the SB8200's pages, trimmed to the parts the parsers
// care about. The channel tables reproduce the device's broken markup:
// the opening <tr> of the header block is closed twice, leaving the
// header cells outside any row.

const LoginPageHTML = `<!DOCTYPE html>
<html>
<head><title>Login</title></head>
<body>
  <form name="login" method="post">
    <input type="text" name="loginUsername">
    <input type="password" name="loginPassword">
  </form>
</body>
</html>
`

const ConnectionStatusHTML = `<!DOCTYPE html>
<html>
<head><title>Status</title></head>
<body>
  <table class="simpleTable">
    <tr><th colspan=3><strong>Startup Procedure</strong></th></tr>
    <tr><td><strong>Procedure</strong></td><td><strong>Status</strong></td><td><strong>Comment</strong></td></tr>
    <tr><td>Acquire Downstream Channel</td><td>363000000 Hz</td><td>Locked</td></tr>
    <tr><td>Connectivity State</td><td>OK</td><td>Operational</td></tr>
    <tr><td>Boot State</td><td>OK</td><td>Operational</td></tr>
    <tr><td>Configuration File</td><td>OK</td><td></td></tr>
    <tr><td>Security</td><td>Enabled</td><td>BPI+</td></tr>
    <tr><td>DOCSIS Network Access Enabled</td><td>Allowed</td><td></td></tr>
  </table>
  <table class="simpleTable">
    <tr>
      <th colspan=8><strong>Downstream Bonded Channels</strong></th>
    </tr>
    <td><strong>Channel ID</strong></td>
    <td><strong>Lock Status</strong></td>
    <td><strong>Modulation</strong></td>
    <td><strong>Frequency</strong></td>
    <td><strong>Power</strong></td>
    <td><strong>SNR/MER</strong></td>
    <td><strong>Corrected</strong></td>
    <td><strong>Uncorrectables</strong></td>
    </tr>
    <tr><td>4</td><td>Locked</td><td>QAM256</td><td>363000000 Hz</td><td>6.2 dBmV</td><td>40.5 dB</td><td>24</td><td>0</td></tr>
    <tr><td>5</td><td>Locked</td><td>QAM256</td><td>369000000 Hz</td><td>6.4 dBmV</td><td>40.9 dB</td><td>11</td><td>0</td></tr>
    <tr><td>6</td><td>Locked</td><td>QAM256</td><td>375000000 Hz</td><td>6.1 dBmV</td><td>40.6 dB</td><td>37</td><td>2</td></tr>
    <tr><td>159</td><td>Locked</td><td>OFDM PLC</td><td>722000000 Hz</td><td>5.8 dBmV</td><td>39.8 dB</td><td>143840</td><td>0</td></tr>
  </table>
  <table class="simpleTable">
    <tr>
      <th colspan=7><strong>Upstream Bonded Channels</strong></th>
    </tr>
    <td><strong>Channel</strong></td>
    <td><strong>Channel ID</strong></td>
    <td><strong>Lock Status</strong></td>
    <td><strong>US Channel Type</strong></td>
    <td><strong>Frequency</strong></td>
    <td><strong>Width</strong></td>
    <td><strong>Power</strong></td>
    </tr>
    <tr><td>1</td><td>1</td><td>Locked</td><td>SC-QAM Upstream</td><td>10400000 Hz</td><td>3200000 Hz</td><td>43.0 dBmV</td></tr>
    <tr><td>2</td><td>2</td><td>Locked</td><td>SC-QAM Upstream</td><td>16400000 Hz</td><td>6400000 Hz</td><td>44.3 dBmV</td></tr>
    <tr><td>3</td><td>3</td><td>Locked</td><td>SC-QAM Upstream</td><td>22800000 Hz</td><td>6400000 Hz</td><td>44.0 dBmV</td></tr>
  </table>
  <p id="systime" align="center"><strong>Current System Time:</strong> Tue Mar 12 14:20:59 2024</p>
</body>
</html>
`

const ProductInfoHTML = `<!DOCTYPE html>
<html>
<head><title>Product Information</title></head>
<body>
  <table class="simpleTable">
    <tr><th colspan=2><strong>Information</strong></th></tr>
    <tr><td>Standard Specification Compliant</td><td>DOCSIS 3.1</td></tr>
    <tr><td>Hardware Version</td><td>6</td></tr>
    <tr><td>Software Version</td><td>AB01.02.053.05_051921_193.0A.NSH</td></tr>
    <tr><td>Cable Modem MAC Address</td><td>00:40:36:12:34:56</td></tr>
    <tr><td>Serial Number</td><td>123456789012345678</td></tr>
    <tr><td>Up Time</td><td>46 days 12h:55m:21s.00</td></tr>
  </table>
</body>
</html>
`
